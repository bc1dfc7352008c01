package flows

import (
	"context"
	"fmt"

	"github.com/statewallet/wallet-session/internal/derivation"
	"github.com/statewallet/wallet-session/internal/entities"
	"github.com/statewallet/wallet-session/internal/queries"
)

type DepositParams struct {
	Identity entities.AccountIdentity
	Amount   int64 `validate:"btc_amount"`
}

// DepositFlow moves on-chain funds of an account into a new statecoin.
type DepositFlow struct {
	*flow
}

func NewDepositFlow(deps Deps) (*DepositFlow, error) {
	f, err := newFlow("deposit", deps)
	if err != nil {
		return nil, err
	}
	return &DepositFlow{flow: f}, nil
}

// Submit deposits params.Amount. The amount must reach the statecoin minimum and, together with
// the statecoin fee, fit in the cached balance of the account.
func (d *DepositFlow) Submit(ctx context.Context, params DepositParams) (entities.DepositResult, error) {
	deriv := derivation.Format(params.Identity)
	var account entities.Account
	return submit(ctx, d.flow, submission[entities.DepositResult]{
		check: func(ctx context.Context) error {
			if err := d.validate.Struct(params); err != nil {
				return fmt.Errorf("validating deposit params: %w", err)
			}
			if err := checkMinimum(params.Amount, d.deps.Fees.StatecoinMin); err != nil {
				return err
			}
			var err error
			if account, err = d.account(ctx, deriv); err != nil {
				return err
			}
			return d.checkBalance(ctx, account.Address, params.Amount, d.deps.Fees.StatecoinFee)
		},
		call: func(ctx context.Context) (entities.DepositResult, error) {
			return d.deps.Gateway.Statechain().Deposit(ctx, deriv, params.Amount)
		},
		invalidate: func() {
			cache := d.deps.Reader.Cache()
			cache.Invalidate(queries.BalanceKey(account.Address))
			cache.Invalidate(queries.UtxoKey(account.Address))
			cache.Invalidate(queries.StatecoinsKey(deriv))
		},
	})
}
