package queries

import (
	"context"
	"time"

	"github.com/vikstrous/dataloadgen"

	"github.com/statewallet/wallet-session/internal/entities"
	"github.com/statewallet/wallet-session/internal/gateway"
)

// statecoinDetailLoader collapses the detail lookups of one statecoin list into a batch,
// deduplicating repeated ids.
func statecoinDetailLoader(gw *gateway.Gateway) *dataloadgen.Loader[string, entities.StatecoinDetail] {
	return dataloadgen.NewLoader(
		func(ctx context.Context, ids []string) ([]entities.StatecoinDetail, []error) {
			details := make([]entities.StatecoinDetail, len(ids))
			errs := make([]error, len(ids))
			for i, id := range ids {
				details[i], errs[i] = gw.Statechain().StatecoinDetail(ctx, id)
			}
			return details, errs
		},
		dataloadgen.WithBatchCapacity(100),
		dataloadgen.WithWait(5*time.Millisecond),
	)
}
