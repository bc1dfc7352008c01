package coinjoin

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/statewallet/wallet-session/internal/entities"
	"github.com/statewallet/wallet-session/internal/gateway"
	"github.com/statewallet/wallet-session/internal/metrics"
	"github.com/statewallet/wallet-session/internal/queries"
	"github.com/statewallet/wallet-session/internal/querycache"
)

var testIdentity = entities.AccountIdentity{AccountNumber: 0, SubAccountNumber: 1}

const testDeriv = "0/1"

type testEnv struct {
	bridge  *gateway.MockBridge
	events  *gateway.MockEventSource
	metrics metrics.MetricsService
	gw      *gateway.Gateway
	cache   *querycache.Cache
	reader  *queries.Reader
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		bridge:  &gateway.MockBridge{},
		events:  &gateway.MockEventSource{},
		metrics: metrics.NewMetricsService(),
	}
	t.Cleanup(func() {
		env.bridge.AssertExpectations(t)
		env.events.AssertExpectations(t)
	})

	var err error
	env.gw, err = gateway.NewGateway(env.bridge, env.events, env.metrics)
	require.NoError(t, err)
	env.cache, err = querycache.NewCache(env.metrics)
	require.NoError(t, err)
	t.Cleanup(env.cache.Close)
	env.reader, err = queries.NewReader(env.cache, env.gw)
	require.NoError(t, err)
	return env
}

// awaitingSignRoom is open for signatures for the next ten minutes.
func awaitingSignRoom(id string) entities.Room {
	now := time.Now().UnixMilli()
	return entities.Room{ID: id, BaseAmount: 10_000, NoPeer: 3, Due1: 1_000, Due2: 600_000, CreatedAt: now - 2_000, UpdatedAt: now}
}

func registeringRoom(id string) entities.Room {
	now := time.Now().UnixMilli()
	return entities.Room{ID: id, BaseAmount: 10_000, NoPeer: 3, Due1: 600_000, Due2: 600_000, CreatedAt: now, UpdatedAt: now}
}

func roomsJSON(t *testing.T, rooms ...entities.Room) string {
	t.Helper()
	raw, err := json.Marshal(rooms)
	require.NoError(t, err)
	return string(raw)
}
