package gateway

import (
	"context"

	"github.com/statewallet/wallet-session/internal/entities"
)

const statechainNamespace = "statechain"

type StatechainCommands struct {
	g *Gateway
}

func (c StatechainCommands) Deposit(ctx context.Context, deriv string, amount int64) (entities.DepositResult, error) {
	return call(ctx, c.g, pluginCommand(statechainNamespace, "deposit"), map[string]any{
		"deriv":  deriv,
		"amount": amount,
	}, entities.DecodeLenient[entities.DepositResult])
}

func (c StatechainCommands) Statecoins(ctx context.Context, deriv string) ([]entities.StateCoin, error) {
	return call(ctx, c.g, pluginCommand(statechainNamespace, "list_statecoins"), map[string]any{"deriv": deriv}, entities.DecodeStateCoins)
}

// SendStatecoin transfers a statecoin to a statechain address and returns the transfer message.
func (c StatechainCommands) SendStatecoin(ctx context.Context, address, statechainID string) (string, error) {
	return call(ctx, c.g, pluginCommand(statechainNamespace, "send_statecoin"), map[string]any{
		"address":      address,
		"statechainId": statechainID,
	}, decodeJSON[string])
}

func (c StatechainCommands) Transfers(ctx context.Context, deriv string) ([]entities.StateCoinTransfer, error) {
	return call(ctx, c.g, pluginCommand(statechainNamespace, "list_transfer_statecoins"), map[string]any{"deriv": deriv}, entities.Decode[[]entities.StateCoinTransfer])
}

func (c StatechainCommands) GenerateAddress(ctx context.Context, deriv string) (string, error) {
	return call(ctx, c.g, pluginCommand(statechainNamespace, "generate_statechain_address"), map[string]any{"deriv": deriv}, decodeJSON[string])
}

// VerifyTransfer verifies an inbound transfer. The host gives no guarantee that verifying the
// same transfer twice is harmless.
func (c StatechainCommands) VerifyTransfer(ctx context.Context, deriv, transferMessage, authKey string) (string, error) {
	return call(ctx, c.g, pluginCommand(statechainNamespace, "verify_transfer_statecoin"), map[string]any{
		"deriv":           deriv,
		"transferMessage": transferMessage,
		"authkey":         authKey,
	}, decodeJSON[string])
}

func (c StatechainCommands) StatecoinDetail(ctx context.Context, statechainID string) (entities.StatecoinDetail, error) {
	return call(ctx, c.g, pluginCommand(statechainNamespace, "get_statecoin_detail_by_id"), map[string]any{"statechainId": statechainID}, entities.DecodeLenient[entities.StatecoinDetail])
}

func (c StatechainCommands) Withdraw(ctx context.Context, statechainID, deriv string) (entities.WithdrawResult, error) {
	return call(ctx, c.g, pluginCommand(statechainNamespace, "withdraw_statecoin"), map[string]any{
		"statechainId": statechainID,
		"deriv":        deriv,
	}, entities.DecodeLenient[entities.WithdrawResult])
}
