package gateway

import (
	"context"
	"sort"

	"github.com/statewallet/wallet-session/internal/entities"
)

// AccountCommands are the unprefixed account commands.
type AccountCommands struct {
	g *Gateway
}

// Accounts lists every account, sorted by account number.
func (c AccountCommands) Accounts(ctx context.Context) ([]entities.Account, error) {
	accounts, err := call(ctx, c.g, "get_accounts", nil, entities.Decode[[]entities.Account])
	if err != nil {
		return nil, err
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].AccountNumber < accounts[j].AccountNumber
	})
	return accounts, nil
}

func (c AccountCommands) Account(ctx context.Context, deriv string) (entities.Account, error) {
	return call(ctx, c.g, "get_account", map[string]any{"deriv": deriv}, entities.Decode[entities.Account])
}

// Balance returns the confirmed balance of address in satoshis.
func (c AccountCommands) Balance(ctx context.Context, address string) (int64, error) {
	return call(ctx, c.g, "get_balance", map[string]any{"address": address}, decodeJSON[int64])
}

func (c AccountCommands) Utxos(ctx context.Context, address string) ([]entities.Utxo, error) {
	return call(ctx, c.g, "get_utxo", map[string]any{"address": address}, entities.Decode[[]entities.Utxo])
}

// CreateMaster creates the master account and returns its seed words.
func (c AccountCommands) CreateMaster(ctx context.Context) ([]string, error) {
	return call(ctx, c.g, "create_master", nil, decodeJSON[[]string])
}

// CreateTx builds, signs and broadcasts a plain transfer.
func (c AccountCommands) CreateTx(ctx context.Context, deriv, address string, amount int64) error {
	_, err := call[struct{}](ctx, c.g, "create_tx", map[string]any{
		"deriv":   deriv,
		"address": address,
		"amount":  amount,
	}, nil)
	return err
}
