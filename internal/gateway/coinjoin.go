package gateway

import (
	"context"

	"github.com/statewallet/wallet-session/internal/entities"
)

const coinjoinNamespace = "coinjoin"

type CoinJoinCommands struct {
	g *Gateway
}

// Register joins a room with amount sent to address. The host may acknowledge without a
// result, in which case the returned result is nil.
func (c CoinJoinCommands) Register(ctx context.Context, deriv, address string, amount int64) (*entities.RegisterResult, error) {
	return call(ctx, c.g, pluginCommand(coinjoinNamespace, "register"), map[string]any{
		"deriv":   deriv,
		"address": address,
		"amount":  amount,
	}, entities.DecodeOptional[entities.RegisterResult])
}

// SignTx signs the room's transaction with the account's inputs. A null reply is a successful
// signature without a result.
func (c CoinJoinCommands) SignTx(ctx context.Context, deriv, roomID string) (*entities.RegisterResult, error) {
	return call(ctx, c.g, pluginCommand(coinjoinNamespace, "sign_txn"), map[string]any{
		"deriv":  deriv,
		"roomId": roomID,
	}, entities.DecodeOptional[entities.RegisterResult])
}

func (c CoinJoinCommands) Rooms(ctx context.Context, deriv string) ([]entities.Room, error) {
	return call(ctx, c.g, pluginCommand(coinjoinNamespace, "get_rooms"), map[string]any{"deriv": deriv}, entities.Decode[[]entities.Room])
}

// Status is the coordinator's view of the room. The object is opaque apart from its status code.
func (c CoinJoinCommands) Status(ctx context.Context, roomID string) (entities.RoomStatusReport, error) {
	return call(ctx, c.g, pluginCommand(coinjoinNamespace, "get_status"), map[string]any{"roomId": roomID}, entities.DecodeLenient[entities.RoomStatusReport])
}

func (c CoinJoinCommands) Signed(ctx context.Context, deriv, roomID string) (entities.SignedStatus, error) {
	return call(ctx, c.g, pluginCommand(coinjoinNamespace, "get_signed"), map[string]any{
		"deriv":  deriv,
		"roomId": roomID,
	}, entities.DecodeLenient[entities.SignedStatus])
}

// OnRegisterComplete subscribes to the host's notification that a registered output was set.
func (c CoinJoinCommands) OnRegisterComplete(ctx context.Context) (*Subscription, error) {
	return c.g.Subscribe(ctx, entities.RegisterCompleteEventName)
}
