package flows

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/statewallet/wallet-session/internal/entities"
)

const recipient = "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"

func TestSendFlow_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("address_of_another_network", func(t *testing.T) {
		env := newTestEnv(t)
		env.primeAccount(t, "200000")
		flow, err := NewSendFlow(env.deps)
		require.NoError(t, err)

		_, err = flow.Submit(ctx, SendParams{Identity: testIdentity, Address: "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx", Amount: 20_000, Strategy: SendStrategyBase})
		var submitErr *SubmitError
		require.ErrorAs(t, err, &submitErr)
		assert.Equal(t, map[string]string{"address": "Invalid bitcoin address"}, submitErr.Fields)
		env.bridge.AssertNumberOfCalls(t, "Invoke", 2)
	})

	t.Run("validation_errors", func(t *testing.T) {
		testCases := []struct {
			name       string
			params     SendParams
			wantFields []string
		}{
			{
				name:       "missing_address_and_strategy",
				params:     SendParams{Identity: testIdentity, Amount: 20_000},
				wantFields: []string{"address", "strategy"},
			},
			{
				name:       "below_dust_floor",
				params:     SendParams{Identity: testIdentity, Address: recipient, Amount: 9_999, Strategy: SendStrategyBase},
				wantFields: []string{"amount"},
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				env := newTestEnv(t)
				flow, err := NewSendFlow(env.deps)
				require.NoError(t, err)

				_, err = flow.Submit(ctx, tc.params)
				var submitErr *SubmitError
				require.ErrorAs(t, err, &submitErr)
				for _, field := range tc.wantFields {
					assert.Contains(t, submitErr.Fields, field)
				}
				env.bridge.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("amount_plus_base_fee_above_balance", func(t *testing.T) {
		env := newTestEnv(t)
		env.primeAccount(t, "20000")
		flow, err := NewSendFlow(env.deps)
		require.NoError(t, err)

		_, err = flow.Submit(ctx, SendParams{Identity: testIdentity, Address: recipient, Amount: 18_000, Strategy: SendStrategyBase})
		var submitErr *SubmitError
		require.ErrorAs(t, err, &submitErr)
		assert.Contains(t, submitErr.Fields["amount"], "Balance is not enough")
	})

	t.Run("base_strategy_creates_transaction", func(t *testing.T) {
		env := newTestEnv(t)
		_, balanceSub := env.primeAccount(t, "200000")
		env.bridge.On("Invoke", mock.Anything, "create_tx", map[string]any{"deriv": testDeriv, "address": recipient, "amount": int64(50_000)}).
			Return("null", nil).Once()

		flow, err := NewSendFlow(env.deps)
		require.NoError(t, err)
		res, err := flow.Submit(ctx, SendParams{Identity: testIdentity, Address: recipient, Amount: 50_000, Strategy: SendStrategyBase})
		require.NoError(t, err)
		assert.Equal(t, SendResult{Strategy: SendStrategyBase}, res)
		assert.True(t, balanceSub.Snapshot().IsStale)
	})

	t.Run("coinjoin_strategy_registers_and_invalidates_rooms", func(t *testing.T) {
		env := newTestEnv(t)
		env.primeAccount(t, "200000")
		roomsSub := env.reader.Subscribe(env.reader.RoomsQuery(testDeriv))
		defer roomsSub.Close()
		env.bridge.On("Invoke", mock.Anything, "plugin:coinjoin|register", map[string]any{"deriv": testDeriv, "address": recipient, "amount": int64(50_000)}).
			Return(`{"room":"r1","signed_blinded_output":"sbo"}`, nil).Once()

		flow, err := NewSendFlow(env.deps)
		require.NoError(t, err)
		res, err := flow.Submit(ctx, SendParams{Identity: testIdentity, Address: recipient, Amount: 50_000, Strategy: SendStrategyCoinJoin})
		require.NoError(t, err)
		assert.Equal(t, &entities.RegisterResult{Room: "r1", SignedBlindedOutput: "sbo"}, res.Registration)
		assert.Equal(t, uint64(1), roomsSub.Snapshot().Version)
	})
}

func TestSendFlow_CoinJoinNullReply(t *testing.T) {
	env := newTestEnv(t)
	env.primeAccount(t, "200000")
	roomsSub := env.reader.Subscribe(env.reader.RoomsQuery(testDeriv))
	defer roomsSub.Close()
	env.bridge.On("Invoke", mock.Anything, "plugin:coinjoin|register", map[string]any{"deriv": testDeriv, "address": recipient, "amount": int64(50_000)}).
		Return("null", nil).Once()

	flow, err := NewSendFlow(env.deps)
	require.NoError(t, err)
	res, err := flow.Submit(context.Background(), SendParams{Identity: testIdentity, Address: recipient, Amount: 50_000, Strategy: SendStrategyCoinJoin})
	require.NoError(t, err)
	assert.Equal(t, SendResult{Strategy: SendStrategyCoinJoin}, res)
	assert.Equal(t, uint64(1), roomsSub.Snapshot().Version)
	assert.NoError(t, flow.Err())
}

func TestSendStatecoinFlow_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown_statecoin", func(t *testing.T) {
		env := newTestEnv(t)
		env.primeStatecoins(t)
		flow, err := NewSendStatecoinFlow(env.deps)
		require.NoError(t, err)

		_, err = flow.Submit(ctx, SendStatecoinParams{Identity: testIdentity, Address: "sc-address", StatechainID: "missing"})
		var submitErr *SubmitError
		require.ErrorAs(t, err, &submitErr)
		assert.Equal(t, map[string]string{"statechainId": "Statecoin not found for this account"}, submitErr.Fields)
		env.bridge.AssertNumberOfCalls(t, "Invoke", 1)
	})

	t.Run("empty_address", func(t *testing.T) {
		env := newTestEnv(t)
		flow, err := NewSendStatecoinFlow(env.deps)
		require.NoError(t, err)

		_, err = flow.Submit(ctx, SendStatecoinParams{Identity: testIdentity, StatechainID: "sc1"})
		var submitErr *SubmitError
		require.ErrorAs(t, err, &submitErr)
		assert.Equal(t, map[string]string{"address": "This field is required"}, submitErr.Fields)
	})

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		statecoinsSub := env.primeStatecoins(t)
		env.bridge.On("Invoke", mock.Anything, "plugin:statechain|send_statecoin", map[string]any{"address": "sc-address", "statechainId": "sc1"}).
			Return(`"transfer-message"`, nil).Once()

		flow, err := NewSendStatecoinFlow(env.deps)
		require.NoError(t, err)
		msg, err := flow.Submit(ctx, SendStatecoinParams{Identity: testIdentity, Address: "sc-address", StatechainID: "sc1"})
		require.NoError(t, err)
		assert.Equal(t, "transfer-message", msg)
		assert.True(t, statecoinsSub.Snapshot().IsStale)
	})
}

func TestWithdrawFlow_Submit(t *testing.T) {
	env := newTestEnv(t)
	statecoinsSub := env.primeStatecoins(t)
	_, balanceSub := env.primeAccount(t, "0")
	env.bridge.On("Invoke", mock.Anything, "plugin:statechain|withdraw_statecoin", map[string]any{"statechainId": "sc1", "deriv": testDeriv}).
		Return(`{"txid":"`+testTxid+`","fee":500}`, nil).Once()

	flow, err := NewWithdrawFlow(env.deps)
	require.NoError(t, err)

	_, err = flow.Submit(context.Background(), testIdentity, "")
	require.ErrorAs(t, err, new(*SubmitError))

	res, err := flow.Submit(context.Background(), testIdentity, "sc1")
	require.NoError(t, err)
	assert.Equal(t, testTxid, res.Txid)
	assert.True(t, statecoinsSub.Snapshot().IsStale)
	assert.True(t, balanceSub.Snapshot().IsStale)
}
