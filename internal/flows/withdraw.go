package flows

import (
	"context"

	"github.com/statewallet/wallet-session/internal/derivation"
	"github.com/statewallet/wallet-session/internal/entities"
	"github.com/statewallet/wallet-session/internal/queries"
)

// WithdrawFlow closes a statecoin back to the on-chain address of its account.
type WithdrawFlow struct {
	*flow
}

func NewWithdrawFlow(deps Deps) (*WithdrawFlow, error) {
	f, err := newFlow("withdraw", deps)
	if err != nil {
		return nil, err
	}
	return &WithdrawFlow{flow: f}, nil
}

func (w *WithdrawFlow) Submit(ctx context.Context, identity entities.AccountIdentity, statechainID string) (entities.WithdrawResult, error) {
	deriv := derivation.Format(identity)
	var account entities.Account
	return submit(ctx, w.flow, submission[entities.WithdrawResult]{
		check: func(ctx context.Context) error {
			if statechainID == "" {
				return &ValidationError{Field: "statechainId", Message: "This field is required"}
			}
			if _, err := w.checkStatecoin(ctx, deriv, statechainID); err != nil {
				return err
			}
			var err error
			account, err = w.account(ctx, deriv)
			return err
		},
		call: func(ctx context.Context) (entities.WithdrawResult, error) {
			return w.deps.Gateway.Statechain().Withdraw(ctx, statechainID, deriv)
		},
		invalidate: func() {
			cache := w.deps.Reader.Cache()
			cache.Invalidate(queries.StatecoinsKey(deriv))
			cache.Invalidate(queries.BalanceKey(account.Address))
		},
	})
}
