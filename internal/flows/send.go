package flows

import (
	"context"
	"fmt"

	"github.com/statewallet/wallet-session/internal/derivation"
	"github.com/statewallet/wallet-session/internal/entities"
	"github.com/statewallet/wallet-session/internal/queries"
)

// SendStrategy selects how a send is carried out.
type SendStrategy string

const (
	// SendStrategyBase broadcasts a plain transaction.
	SendStrategyBase SendStrategy = "base"
	// SendStrategyCoinJoin registers the output in a CoinJoin room.
	SendStrategyCoinJoin SendStrategy = "coinjoin"
)

type SendParams struct {
	Identity entities.AccountIdentity
	Address  string       `validate:"required"`
	Amount   int64        `validate:"btc_amount"`
	Strategy SendStrategy `validate:"oneof=base coinjoin"`
}

// SendResult carries the room registration when the CoinJoin strategy was used and the host
// returned one.
type SendResult struct {
	Strategy     SendStrategy
	Registration *entities.RegisterResult
}

type SendFlow struct {
	*flow
}

func NewSendFlow(deps Deps) (*SendFlow, error) {
	f, err := newFlow("send", deps)
	if err != nil {
		return nil, err
	}
	return &SendFlow{flow: f}, nil
}

// Submit sends params.Amount to params.Address. The address must belong to the account's network
// and the amount must clear the dust floor and, with the base transaction fee, fit in the
// cached balance.
func (s *SendFlow) Submit(ctx context.Context, params SendParams) (SendResult, error) {
	deriv := derivation.Format(params.Identity)
	var account entities.Account
	return submit(ctx, s.flow, submission[SendResult]{
		check: func(ctx context.Context) error {
			if err := s.validate.Struct(params); err != nil {
				return fmt.Errorf("validating send params: %w", err)
			}
			if err := checkMinimum(params.Amount, s.deps.Fees.DustFloor); err != nil {
				return err
			}
			var err error
			if account, err = s.account(ctx, deriv); err != nil {
				return err
			}
			if err = checkAddress(params.Address, account.Network); err != nil {
				return err
			}
			return s.checkBalance(ctx, account.Address, params.Amount, s.deps.Fees.BaseTxFee)
		},
		call: func(ctx context.Context) (SendResult, error) {
			if params.Strategy == SendStrategyCoinJoin {
				registration, err := s.deps.Gateway.CoinJoin().Register(ctx, deriv, params.Address, params.Amount)
				if err != nil {
					return SendResult{}, err
				}
				return SendResult{Strategy: params.Strategy, Registration: registration}, nil
			}
			if err := s.deps.Gateway.Account().CreateTx(ctx, deriv, params.Address, params.Amount); err != nil {
				return SendResult{}, err
			}
			return SendResult{Strategy: params.Strategy}, nil
		},
		invalidate: func() {
			cache := s.deps.Reader.Cache()
			cache.Invalidate(queries.BalanceKey(account.Address))
			cache.Invalidate(queries.UtxoKey(account.Address))
			if params.Strategy == SendStrategyCoinJoin {
				cache.Invalidate(queries.RoomsKey(deriv))
			}
		},
	})
}
