package gateway

import (
	"context"

	"github.com/statewallet/wallet-session/internal/entities"
)

const appNamespace = "app"

// AppCommands are the plugin:app commands driving wallet setup and sign-in.
type AppCommands struct {
	g *Gateway
}

func (c AppCommands) InitState(ctx context.Context) (entities.InitState, error) {
	return call(ctx, c.g, pluginCommand(appNamespace, "get_init_state"), nil, entities.Decode[entities.InitState])
}

func (c AppCommands) SignUp(ctx context.Context, password string) error {
	_, err := call[struct{}](ctx, c.g, pluginCommand(appNamespace, "signup"), map[string]any{"password": password}, nil)
	return err
}

// SignIn reports whether the password unlocked the wallet.
func (c AppCommands) SignIn(ctx context.Context, password string) (bool, error) {
	return call(ctx, c.g, pluginCommand(appNamespace, "signin"), map[string]any{"password": password}, decodeJSON[bool])
}

func (c AppCommands) CreateMaster(ctx context.Context) ([]string, error) {
	return call(ctx, c.g, pluginCommand(appNamespace, "create_master"), nil, decodeJSON[[]string])
}

// TxConfirmed reports whether the transaction txid is confirmed.
func (c AppCommands) TxConfirmed(ctx context.Context, txid string) (bool, error) {
	return call(ctx, c.g, pluginCommand(appNamespace, "get_status"), map[string]any{"txid": txid}, decodeJSON[bool])
}
