package flows

import (
	"context"
	"fmt"

	"github.com/statewallet/wallet-session/internal/derivation"
	"github.com/statewallet/wallet-session/internal/entities"
	"github.com/statewallet/wallet-session/internal/queries"
)

type SendStatecoinParams struct {
	Identity     entities.AccountIdentity
	Address      string `validate:"required"`
	StatechainID string `validate:"required"`
}

type SendStatecoinFlow struct {
	*flow
}

func NewSendStatecoinFlow(deps Deps) (*SendStatecoinFlow, error) {
	f, err := newFlow("send_statecoin", deps)
	if err != nil {
		return nil, err
	}
	return &SendStatecoinFlow{flow: f}, nil
}

// Submit transfers a statecoin of the account to a statechain address and returns the transfer
// message the receiver needs to verify it.
func (s *SendStatecoinFlow) Submit(ctx context.Context, params SendStatecoinParams) (string, error) {
	deriv := derivation.Format(params.Identity)
	return submit(ctx, s.flow, submission[string]{
		check: func(ctx context.Context) error {
			if err := s.validate.Struct(params); err != nil {
				return fmt.Errorf("validating send statecoin params: %w", err)
			}
			_, err := s.checkStatecoin(ctx, deriv, params.StatechainID)
			return err
		},
		call: func(ctx context.Context) (string, error) {
			return s.deps.Gateway.Statechain().SendStatecoin(ctx, params.Address, params.StatechainID)
		},
		invalidate: func() {
			s.deps.Reader.Cache().Invalidate(queries.StatecoinsKey(deriv))
		},
	})
}
