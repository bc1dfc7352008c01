package flows

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/statewallet/wallet-session/internal/apptracker"
	"github.com/statewallet/wallet-session/internal/entities"
	"github.com/statewallet/wallet-session/internal/gateway"
	"github.com/statewallet/wallet-session/internal/metrics"
	"github.com/statewallet/wallet-session/internal/queries"
	"github.com/statewallet/wallet-session/internal/querycache"
)

const (
	testDeriv   = "0/1"
	testAddress = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	testAccount = `{"account_number":0,"sub_account_number":1,"address":"` + testAddress + `","address_type":"P2WPKH","network":"bitcoin"}`
	testTxid    = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
)

var testIdentity = entities.AccountIdentity{AccountNumber: 0, SubAccountNumber: 1}

type testEnv struct {
	bridge  *gateway.MockBridge
	tracker *apptracker.MockAppTracker
	reader  *queries.Reader
	cache   *querycache.Cache
	deps    Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		bridge:  &gateway.MockBridge{},
		tracker: &apptracker.MockAppTracker{},
	}
	t.Cleanup(func() {
		env.bridge.AssertExpectations(t)
		env.tracker.AssertExpectations(t)
	})

	metricsService := metrics.NewMetricsService()
	gw, err := gateway.NewGateway(env.bridge, nil, metricsService)
	require.NoError(t, err)
	env.cache, err = querycache.NewCache(metricsService)
	require.NoError(t, err)
	t.Cleanup(env.cache.Close)
	env.reader, err = queries.NewReader(env.cache, gw)
	require.NoError(t, err)

	env.deps = Deps{
		Gateway:        gw,
		Reader:         env.reader,
		AppTracker:     env.tracker,
		MetricsService: metricsService,
		Fees:           DefaultFeeSchedule(),
	}
	return env
}

// hold subscribes to q and fetches it once, the way a screen keeps a query alive while its form
// is shown.
func (env *testEnv) hold(t *testing.T, q queries.Query) *querycache.Subscription {
	t.Helper()
	sub := env.reader.Subscribe(q)
	t.Cleanup(sub.Close)
	_, err := sub.Fetch(context.Background(), q.Fetch)
	require.NoError(t, err)
	return sub
}

// primeAccount caches the test account and its balance.
func (env *testEnv) primeAccount(t *testing.T, balance string) (account, bal *querycache.Subscription) {
	t.Helper()
	env.bridge.
		On("Invoke", mock.Anything, "get_account", map[string]any{"deriv": testDeriv}).Return(testAccount, nil).Once().
		On("Invoke", mock.Anything, "get_balance", map[string]any{"address": testAddress}).Return(balance, nil).Once()
	return env.hold(t, env.reader.ProfileQuery(testDeriv)), env.hold(t, env.reader.BalanceQuery(testAddress))
}

func (env *testEnv) primeStatecoins(t *testing.T) *querycache.Subscription {
	t.Helper()
	env.bridge.On("Invoke", mock.Anything, "plugin:statechain|list_statecoins", map[string]any{"deriv": testDeriv}).
		Return(`[{"statechain_id":"sc1","aggregated_address":"agg1","amount":50000,"funding_txid":"`+testTxid+`","funding_vout":0,"n_lock_time":800000}]`, nil).Once()
	return env.hold(t, env.reader.StatecoinsQuery(testDeriv))
}
