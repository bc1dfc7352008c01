package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/statewallet/wallet-session/internal/metrics"
)

const redacted = "<redacted>"

// sensitiveArgs are never written to logs.
var sensitiveArgs = map[string]struct{}{
	"password":        {},
	"authkey":         {},
	"transferMessage": {},
}

// Gateway is the typed facade over the wallet host. Commands are grouped by namespace.
type Gateway struct {
	bridge         Bridge
	events         EventSource
	metricsService metrics.MetricsService
}

func NewGateway(bridge Bridge, events EventSource, metricsService metrics.MetricsService) (*Gateway, error) {
	if bridge == nil {
		return nil, errors.New("bridge cannot be nil")
	}
	if metricsService == nil {
		return nil, errors.New("metrics service cannot be nil")
	}
	return &Gateway{
		bridge:         bridge,
		events:         events,
		metricsService: metricsService,
	}, nil
}

func (g *Gateway) Account() AccountCommands {
	return AccountCommands{g: g}
}

func (g *Gateway) App() AppCommands {
	return AppCommands{g: g}
}

func (g *Gateway) CoinJoin() CoinJoinCommands {
	return CoinJoinCommands{g: g}
}

func (g *Gateway) Statechain() StatechainCommands {
	return StatechainCommands{g: g}
}

func (g *Gateway) Wallet() WalletCommands {
	return WalletCommands{g: g}
}

// Subscribe listens to a host-pushed event. The returned subscription must be closed.
func (g *Gateway) Subscribe(ctx context.Context, event string) (*Subscription, error) {
	if g.events == nil {
		return nil, fmt.Errorf("subscribing to %s: no event source configured", event)
	}
	sub, err := g.events.Subscribe(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", event, err)
	}
	g.metricsService.IncBridgeEvents(event)
	return sub, nil
}

// call invokes command and decodes its reply with decode. Every failure of the host or the
// transport is returned as a *RemoteCommandError; a reply that does not match the expected
// shape is a decoding error.
func call[T any](ctx context.Context, g *Gateway, command string, args map[string]any, decode func([]byte) (T, error)) (T, error) {
	var zero T
	if args == nil {
		args = map[string]any{}
	}

	g.metricsService.IncBridgeCalls(command)
	start := time.Now()
	raw, err := g.bridge.Invoke(ctx, command, args)
	g.metricsService.ObserveBridgeCallDuration(command, time.Since(start).Seconds())
	if err != nil {
		g.metricsService.IncBridgeCallErrors(command, "remote")
		log.Ctx(ctx).Debugf("[bridge] %s %v > err: %v", command, loggableArgs(args), err)
		return zero, &RemoteCommandError{Command: command, Err: err}
	}
	log.Ctx(ctx).Debugf("[bridge] %s %v > %s", command, loggableArgs(args), raw)

	if decode == nil {
		return zero, nil
	}
	v, err := decode(raw)
	if err != nil {
		g.metricsService.IncBridgeCallErrors(command, "decode")
		return zero, fmt.Errorf("decoding %s reply: %w", command, err)
	}
	return v, nil
}

func loggableArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if _, ok := sensitiveArgs[k]; ok {
			out[k] = redacted
			continue
		}
		out[k] = v
	}
	return out
}

func decodeJSON[T any](raw []byte) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("unmarshalling %T: %w", v, err)
	}
	return v, nil
}

func pluginCommand(namespace, op string) string {
	return "plugin:" + namespace + "|" + op
}
