package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/statewallet/wallet-session/internal/entities"
	"github.com/statewallet/wallet-session/internal/metrics"
)

var testTxid = strings.Repeat("ab", 32)

func newTestGateway(t *testing.T) (*Gateway, *MockBridge) {
	t.Helper()
	bridge := &MockBridge{}
	t.Cleanup(func() { bridge.AssertExpectations(t) })
	g, err := NewGateway(bridge, nil, metrics.NewMetricsService())
	require.NoError(t, err)
	return g, bridge
}

func TestNewGateway(t *testing.T) {
	t.Run("nil_bridge", func(t *testing.T) {
		g, err := NewGateway(nil, nil, metrics.NewMetricsService())
		require.EqualError(t, err, "bridge cannot be nil")
		assert.Nil(t, g)
	})

	t.Run("nil_metrics", func(t *testing.T) {
		g, err := NewGateway(&MockBridge{}, nil, nil)
		require.EqualError(t, err, "metrics service cannot be nil")
		assert.Nil(t, g)
	})
}

func TestAccountCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("accounts_sorted_by_account_number", func(t *testing.T) {
		g, bridge := newTestGateway(t)
		bridge.On("Invoke", mock.Anything, "get_accounts", map[string]any{}).Return(`[
			{"account_number":2,"sub_account_number":0,"address":"tb1qb","address_type":"P2WPKH","network":"testnet"},
			{"account_number":0,"sub_account_number":1,"address":"tb1qa","address_type":"P2PKH","network":"testnet"}
		]`, nil).Once()

		accounts, err := g.Account().Accounts(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, uint32(0), accounts[0].AccountNumber)
		assert.Equal(t, uint32(2), accounts[1].AccountNumber)
	})

	t.Run("unknown_network_is_rejected", func(t *testing.T) {
		g, bridge := newTestGateway(t)
		bridge.On("Invoke", mock.Anything, "get_account", map[string]any{"deriv": "0/1"}).
			Return(`{"account_number":0,"sub_account_number":1,"address":"x","address_type":"P2PKH","network":"litecoin"}`, nil).Once()

		_, err := g.Account().Account(ctx, "0/1")
		require.ErrorContains(t, err, "decoding get_account reply")
		var remoteErr *RemoteCommandError
		assert.False(t, errors.As(err, &remoteErr))
	})

	t.Run("balance", func(t *testing.T) {
		g, bridge := newTestGateway(t)
		bridge.On("Invoke", mock.Anything, "get_balance", map[string]any{"address": "tb1qa"}).Return(`100000`, nil).Once()

		balance, err := g.Account().Balance(ctx, "tb1qa")
		require.NoError(t, err)
		assert.Equal(t, int64(100_000), balance)
	})

	t.Run("create_tx_args", func(t *testing.T) {
		g, bridge := newTestGateway(t)
		bridge.On("Invoke", mock.Anything, "create_tx", map[string]any{
			"deriv":   "0/1",
			"address": "tb1qdest",
			"amount":  int64(50_000),
		}).Return(`null`, nil).Once()

		require.NoError(t, g.Account().CreateTx(ctx, "0/1", "tb1qdest", 50_000))
	})
}

func TestCommandFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("host_error_is_wrapped", func(t *testing.T) {
		g, bridge := newTestGateway(t)
		hostErr := &HostError{Message: "room is full"}
		bridge.On("Invoke", mock.Anything, "plugin:coinjoin|register", mock.Anything).Return(nil, hostErr).Once()

		_, err := g.CoinJoin().Register(ctx, "0/1", "tb1q", 10_000)
		var remoteErr *RemoteCommandError
		require.ErrorAs(t, err, &remoteErr)
		assert.Equal(t, "plugin:coinjoin|register", remoteErr.Command)
		assert.ErrorIs(t, err, hostErr)
		assert.False(t, IsConflict(err))
	})

	t.Run("conflict", func(t *testing.T) {
		g, bridge := newTestGateway(t)
		bridge.On("Invoke", mock.Anything, "plugin:coinjoin|sign_txn", map[string]any{"deriv": "0/1", "roomId": "r1"}).
			Return(nil, &HostError{Message: "signing window closed", Code: HostErrorCodeConflict}).Once()

		_, err := g.CoinJoin().SignTx(ctx, "0/1", "r1")
		require.Error(t, err)
		assert.True(t, IsConflict(err))
	})
}

func TestCoinJoinMutationReplies(t *testing.T) {
	ctx := context.Background()
	g, bridge := newTestGateway(t)
	bridge.
		On("Invoke", mock.Anything, "plugin:coinjoin|sign_txn", map[string]any{"deriv": "0/1", "roomId": "r1"}).Return("null", nil).Once().
		On("Invoke", mock.Anything, "plugin:coinjoin|register", mock.Anything).Return(``, nil).Once().
		On("Invoke", mock.Anything, "plugin:coinjoin|sign_txn", map[string]any{"deriv": "0/1", "roomId": "r2"}).Return(`{"room":"r2","signed_blinded_output":"out"}`, nil).Once()

	res, err := g.CoinJoin().SignTx(ctx, "0/1", "r1")
	require.NoError(t, err)
	assert.Nil(t, res)

	reg, err := g.CoinJoin().Register(ctx, "0/1", "tb1q", 10_000)
	require.NoError(t, err)
	assert.Nil(t, reg)

	res, err = g.CoinJoin().SignTx(ctx, "0/1", "r2")
	require.NoError(t, err)
	assert.Equal(t, &entities.RegisterResult{Room: "r2", SignedBlindedOutput: "out"}, res)
}

func TestStatechainCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("legacy_statecoins_are_migrated", func(t *testing.T) {
		g, bridge := newTestGateway(t)
		bridge.On("Invoke", mock.Anything, "plugin:statechain|list_statecoins", map[string]any{"deriv": "0/1"}).
			Return(`[{"txid":"`+testTxid+`","address":"tb1qagg","n_locktime":800000,"value":20000}]`, nil).Once()

		coins, err := g.Statechain().Statecoins(ctx, "0/1")
		require.NoError(t, err)
		require.Len(t, coins, 1)
		assert.Equal(t, testTxid, coins[0].StatechainID)
		assert.Equal(t, int64(20_000), coins[0].Amount)
	})

	t.Run("unknown_statecoin_shape", func(t *testing.T) {
		g, bridge := newTestGateway(t)
		bridge.On("Invoke", mock.Anything, "plugin:statechain|list_statecoins", map[string]any{"deriv": "0/1"}).
			Return(`[{"id":"x"}]`, nil).Once()

		_, err := g.Statechain().Statecoins(ctx, "0/1")
		require.ErrorIs(t, err, entities.ErrUnknownShape)
	})

	t.Run("verify_transfer_args", func(t *testing.T) {
		g, bridge := newTestGateway(t)
		bridge.On("Invoke", mock.Anything, "plugin:statechain|verify_transfer_statecoin", map[string]any{
			"deriv":           "0/1",
			"transferMessage": "msg",
			"authkey":         "key",
		}).Return(`"statechain-1"`, nil).Once()

		id, err := g.Statechain().VerifyTransfer(ctx, "0/1", "msg", "key")
		require.NoError(t, err)
		assert.Equal(t, "statechain-1", id)
	})

	t.Run("deposit", func(t *testing.T) {
		g, bridge := newTestGateway(t)
		bridge.On("Invoke", mock.Anything, "plugin:statechain|deposit", map[string]any{"deriv": "0/1", "amount": int64(20_000)}).
			Return(`{"aggregated_address":"tb1pagg","deposit_tx_hex":"0200","extra":1}`, nil).Once()

		res, err := g.Statechain().Deposit(ctx, "0/1", 20_000)
		require.NoError(t, err)
		assert.Equal(t, "tb1pagg", res.AggregatedAddress)
	})
}

func TestAppCommands(t *testing.T) {
	ctx := context.Background()
	g, bridge := newTestGateway(t)
	bridge.
		On("Invoke", mock.Anything, "plugin:app|get_init_state", map[string]any{}).Return(`{"type":"CreatedPassword","password":"hunter2"}`, nil).Once().
		On("Invoke", mock.Anything, "plugin:app|signin", map[string]any{"password": "hunter2"}).Return(`true`, nil).Once().
		On("Invoke", mock.Anything, "save_password", map[string]any{"password": "hunter2"}).Return(json.RawMessage(`null`), nil).Once().
		On("Invoke", mock.Anything, "plugin:app|get_status", map[string]any{"txid": testTxid}).Return(`false`, nil).Once()

	state, err := g.App().InitState(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.InitStateCreatedPassword, state.Type)

	ok, err := g.App().SignIn(ctx, "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, g.Wallet().SavePassword(ctx, "hunter2"))

	confirmed, err := g.App().TxConfirmed(ctx, testTxid)
	require.NoError(t, err)
	assert.False(t, confirmed)
}

func TestCallMetrics(t *testing.T) {
	bridge := &MockBridge{}
	mockMetricsService := metrics.NewMockMetricsService()
	mockMetricsService.
		On("IncBridgeCalls", "get_balance").Return().Once().
		On("ObserveBridgeCallDuration", "get_balance", mock.AnythingOfType("float64")).Return().Once().
		On("IncBridgeCallErrors", "get_balance", "remote").Return().Once()
	defer mockMetricsService.AssertExpectations(t)

	bridge.On("Invoke", mock.Anything, "get_balance", mock.Anything).Return(nil, errors.New("offline")).Once()

	g, err := NewGateway(bridge, nil, mockMetricsService)
	require.NoError(t, err)
	_, err = g.Account().Balance(context.Background(), "tb1q")
	require.ErrorContains(t, err, "command get_balance failed: offline")
}

func TestLoggableArgs(t *testing.T) {
	args := map[string]any{"password": "secret", "authkey": "k", "deriv": "0/1"}
	out := loggableArgs(args)
	assert.Equal(t, redacted, out["password"])
	assert.Equal(t, redacted, out["authkey"])
	assert.Equal(t, "0/1", out["deriv"])
	assert.Equal(t, "secret", args["password"])
}

func TestGatewaySubscribe(t *testing.T) {
	t.Run("no_event_source", func(t *testing.T) {
		g, _ := newTestGateway(t)
		_, err := g.CoinJoin().OnRegisterComplete(context.Background())
		require.ErrorContains(t, err, "no event source configured")
	})

	t.Run("delegates_to_source", func(t *testing.T) {
		source := &MockEventSource{}
		sub := NewSubscription(1, nil)
		source.On("Subscribe", mock.Anything, entities.RegisterCompleteEventName).Return(sub, nil).Once()
		defer source.AssertExpectations(t)

		g, err := NewGateway(&MockBridge{}, source, metrics.NewMetricsService())
		require.NoError(t, err)
		got, err := g.CoinJoin().OnRegisterComplete(context.Background())
		require.NoError(t, err)
		assert.Same(t, sub, got)
	})
}

func TestSubscription(t *testing.T) {
	releases := 0
	sub := NewSubscription(1, func() { releases++ })

	require.True(t, sub.Deliver(context.Background(), Event{Name: "e"}))
	ev := <-sub.C()
	assert.Equal(t, "e", ev.Name)

	sub.Close()
	sub.Close()
	assert.Equal(t, 1, releases)
	assert.False(t, sub.Deliver(context.Background(), Event{Name: "e"}))

	select {
	case <-sub.Done():
	default:
		t.Fatal("subscription should be done")
	}
}
