package gateway

import (
	"context"

	"github.com/statewallet/wallet-session/internal/entities"
)

type WalletCommands struct {
	g *Gateway
}

func (c WalletCommands) InitState(ctx context.Context) (entities.InitState, error) {
	return call(ctx, c.g, "get_init_state", nil, entities.Decode[entities.InitState])
}

func (c WalletCommands) SavePassword(ctx context.Context, password string) error {
	_, err := call[struct{}](ctx, c.g, "save_password", map[string]any{"password": password}, nil)
	return err
}
