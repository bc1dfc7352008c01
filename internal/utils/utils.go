package utils

import (
	"context"
	"io"

	"github.com/stellar/go-stellar-sdk/support/log"
)

// DeferredClose is a function that closes an `io.Closer` resource and logs an error if it fails.
func DeferredClose(ctx context.Context, closer io.Closer, errMsg string) {
	if err := closer.Close(); err != nil {
		if errMsg == "" {
			errMsg = "closing resource"
		}
		log.Ctx(ctx).Errorf("%s: %v", errMsg, err)
	}
}
