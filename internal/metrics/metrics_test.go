package metrics

import (
	"testing"

	"github.com/alitto/pond/v2"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findFamily(t *testing.T, ms MetricsService, name string) *dto.MetricFamily {
	t.Helper()
	metricFamilies, err := ms.GetRegistry().Gather()
	require.NoError(t, err)
	for _, mf := range metricFamilies {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestNewMetricsService(t *testing.T) {
	ms := NewMetricsService()
	assert.NotNil(t, ms)
	assert.NotNil(t, ms.GetRegistry())
}

func TestBridgeMetrics(t *testing.T) {
	ms := NewMetricsService()

	t.Run("calls and errors", func(t *testing.T) {
		ms.IncBridgeCalls("get_accounts")
		ms.IncBridgeCalls("get_accounts")
		ms.IncBridgeCallErrors("get_accounts", "remote")
		ms.ObserveBridgeCallDuration("get_accounts", 0.2)

		calls := findFamily(t, ms, "bridge_calls_total")
		require.NotNil(t, calls)
		require.Len(t, calls.GetMetric(), 1)
		assert.Equal(t, 2.0, calls.GetMetric()[0].GetCounter().GetValue())

		errs := findFamily(t, ms, "bridge_call_errors_total")
		require.NotNil(t, errs)
		assert.Equal(t, 1.0, errs.GetMetric()[0].GetCounter().GetValue())

		duration := findFamily(t, ms, "bridge_call_duration_seconds")
		require.NotNil(t, duration)
		assert.Equal(t, uint64(1), duration.GetMetric()[0].GetSummary().GetSampleCount())
	})
}

func TestCacheMetrics(t *testing.T) {
	ms := NewMetricsService()

	ms.IncCacheHits("balance")
	ms.IncCacheMisses("balance")
	ms.IncCacheFetches("balance", true)
	ms.IncCacheFetches("balance", false)
	ms.IncCacheStaleDiscards("balance")
	ms.IncCacheInvalidations("balance", 3)
	ms.SetCacheEntries(7)

	fetches := findFamily(t, ms, "query_cache_fetches_total")
	require.NotNil(t, fetches)
	assert.Len(t, fetches.GetMetric(), 2)

	invalidations := findFamily(t, ms, "query_cache_invalidations_total")
	require.NotNil(t, invalidations)
	assert.Equal(t, 3.0, invalidations.GetMetric()[0].GetCounter().GetValue())

	entries := findFamily(t, ms, "query_cache_entries")
	require.NotNil(t, entries)
	assert.Equal(t, 7.0, entries.GetMetric()[0].GetGauge().GetValue())
}

func TestFlowAndRoomMetrics(t *testing.T) {
	ms := NewMetricsService()

	ms.IncFlowSubmissions("deposit", "success")
	ms.ObserveFlowDuration("deposit", 1.5)
	ms.SetRoomsInPhase("AwaitingSign", 2)

	submissions := findFamily(t, ms, "flow_submissions_total")
	require.NotNil(t, submissions)
	assert.Equal(t, 1.0, submissions.GetMetric()[0].GetCounter().GetValue())

	rooms := findFamily(t, ms, "coinjoin_rooms_in_phase")
	require.NotNil(t, rooms)
	assert.Equal(t, 2.0, rooms.GetMetric()[0].GetGauge().GetValue())
}

func TestRegisterPoolMetrics(t *testing.T) {
	ms := NewMetricsService()
	pool := pond.NewPool(2)
	defer pool.StopAndWait()

	ms.RegisterPoolMetrics("test", pool)
	pool.Submit(func() {}).Wait()

	submitted := findFamily(t, ms, "pool_tasks_submitted_total")
	require.NotNil(t, submitted)
	assert.Equal(t, 1.0, submitted.GetMetric()[0].GetCounter().GetValue())
}
