package metrics

import (
	"strconv"

	"github.com/alitto/pond/v2"
	"github.com/prometheus/client_golang/prometheus"
)

type MetricsService interface {
	RegisterPoolMetrics(pool string, p pond.Pool)
	GetRegistry() *prometheus.Registry
	// Command Bridge Metrics
	IncBridgeCalls(command string)
	ObserveBridgeCallDuration(command string, duration float64)
	IncBridgeCallErrors(command, errorType string)
	IncBridgeEvents(event string)
	// Query Cache Metrics
	IncCacheHits(resource string)
	IncCacheMisses(resource string)
	IncCacheFetches(resource string, success bool)
	IncCacheStaleDiscards(resource string)
	IncCacheInvalidations(resource string, count int)
	SetCacheEntries(count int)
	// Flow Metrics
	IncFlowSubmissions(flow, outcome string)
	ObserveFlowDuration(flow string, duration float64)
	// CoinJoin Room Metrics
	SetRoomsInPhase(phase string, count int)
}

// metricsService handles all metrics for the wallet session layer
type metricsService struct {
	registry *prometheus.Registry

	// Command Bridge Metrics
	bridgeCallsTotal  *prometheus.CounterVec
	bridgeCallLatency *prometheus.SummaryVec
	bridgeCallErrors  *prometheus.CounterVec
	bridgeEventsTotal *prometheus.CounterVec

	// Query Cache Metrics
	cacheHitsTotal          *prometheus.CounterVec
	cacheMissesTotal        *prometheus.CounterVec
	cacheFetchesTotal       *prometheus.CounterVec
	cacheStaleDiscardsTotal *prometheus.CounterVec
	cacheInvalidationsTotal *prometheus.CounterVec
	cacheEntries            prometheus.Gauge

	// Flow Metrics
	flowSubmissionsTotal *prometheus.CounterVec
	flowDuration         *prometheus.HistogramVec

	// CoinJoin Room Metrics
	roomsInPhase *prometheus.GaugeVec
}

func NewMetricsService() MetricsService {
	m := &metricsService{
		registry: prometheus.NewRegistry(),
	}

	// Command Bridge Metrics
	m.bridgeCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_calls_total",
			Help: "Total number of commands invoked on the backend bridge",
		},
		[]string{"command"},
	)
	m.bridgeCallLatency = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "bridge_call_duration_seconds",
			Help:       "Duration of backend bridge commands in seconds",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"command"},
	)
	m.bridgeCallErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_call_errors_total",
			Help: "Total number of failed backend bridge commands by error type",
		},
		[]string{"command", "error_type"},
	)
	m.bridgeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_events_total",
			Help: "Total number of events pushed by the backend",
		},
		[]string{"event"},
	)

	// Query Cache Metrics
	m.cacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_hits_total",
			Help: "Reads served from a fresh cache entry",
		},
		[]string{"resource"},
	)
	m.cacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_misses_total",
			Help: "Reads that required a fetch",
		},
		[]string{"resource"},
	)
	m.cacheFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_fetches_total",
			Help: "Completed fetches by outcome",
		},
		[]string{"resource", "success"},
	)
	m.cacheStaleDiscardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_stale_discards_total",
			Help: "Fetch results discarded because the entry was invalidated meanwhile",
		},
		[]string{"resource"},
	)
	m.cacheInvalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_invalidations_total",
			Help: "Entries marked stale by invalidation",
		},
		[]string{"resource"},
	)
	m.cacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "query_cache_entries",
			Help: "Number of live cache entries",
		},
	)

	// Flow Metrics
	m.flowSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_submissions_total",
			Help: "Mutation flow submissions by outcome",
		},
		[]string{"flow", "outcome"},
	)
	m.flowDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flow_duration_seconds",
			Help:    "Duration of mutation flow submissions",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"flow"},
	)

	// CoinJoin Room Metrics
	m.roomsInPhase = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coinjoin_rooms_in_phase",
			Help: "Number of watched CoinJoin rooms per lifecycle phase",
		},
		[]string{"phase"},
	)

	m.registerMetrics()
	return m
}

func (m *metricsService) registerMetrics() {
	m.registry.MustRegister(
		m.bridgeCallsTotal,
		m.bridgeCallLatency,
		m.bridgeCallErrors,
		m.bridgeEventsTotal,
		m.cacheHitsTotal,
		m.cacheMissesTotal,
		m.cacheFetchesTotal,
		m.cacheStaleDiscardsTotal,
		m.cacheInvalidationsTotal,
		m.cacheEntries,
		m.flowSubmissionsTotal,
		m.flowDuration,
		m.roomsInPhase,
	)
}

func (m *metricsService) RegisterPoolMetrics(pool string, p pond.Pool) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "pool_workers_running",
			Help:        "Number of running worker goroutines",
			ConstLabels: prometheus.Labels{"pool": pool},
		},
		func() float64 {
			return float64(p.RunningWorkers())
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "pool_tasks_submitted_total",
			Help:        "Number of tasks submitted",
			ConstLabels: prometheus.Labels{"pool": pool},
		},
		func() float64 {
			return float64(p.SubmittedTasks())
		},
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "pool_tasks_waiting",
			Help:        "Number of tasks currently waiting in the queue",
			ConstLabels: prometheus.Labels{"pool": pool},
		},
		func() float64 {
			return float64(p.WaitingTasks())
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "pool_tasks_failed_total",
			Help:        "Number of tasks that completed with panic",
			ConstLabels: prometheus.Labels{"pool": pool},
		},
		func() float64 {
			return float64(p.FailedTasks())
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "pool_tasks_completed_total",
			Help:        "Number of tasks that completed either successfully or with panic",
			ConstLabels: prometheus.Labels{"pool": pool},
		},
		func() float64 {
			return float64(p.CompletedTasks())
		},
	))
}

// GetRegistry returns the prometheus registry
func (m *metricsService) GetRegistry() *prometheus.Registry {
	return m.registry
}

// Command Bridge Metrics

func (m *metricsService) IncBridgeCalls(command string) {
	m.bridgeCallsTotal.WithLabelValues(command).Inc()
}

func (m *metricsService) ObserveBridgeCallDuration(command string, duration float64) {
	m.bridgeCallLatency.WithLabelValues(command).Observe(duration)
}

func (m *metricsService) IncBridgeCallErrors(command, errorType string) {
	m.bridgeCallErrors.WithLabelValues(command, errorType).Inc()
}

func (m *metricsService) IncBridgeEvents(event string) {
	m.bridgeEventsTotal.WithLabelValues(event).Inc()
}

// Query Cache Metrics

func (m *metricsService) IncCacheHits(resource string) {
	m.cacheHitsTotal.WithLabelValues(resource).Inc()
}

func (m *metricsService) IncCacheMisses(resource string) {
	m.cacheMissesTotal.WithLabelValues(resource).Inc()
}

func (m *metricsService) IncCacheFetches(resource string, success bool) {
	m.cacheFetchesTotal.WithLabelValues(resource, strconv.FormatBool(success)).Inc()
}

func (m *metricsService) IncCacheStaleDiscards(resource string) {
	m.cacheStaleDiscardsTotal.WithLabelValues(resource).Inc()
}

func (m *metricsService) IncCacheInvalidations(resource string, count int) {
	m.cacheInvalidationsTotal.WithLabelValues(resource).Add(float64(count))
}

func (m *metricsService) SetCacheEntries(count int) {
	m.cacheEntries.Set(float64(count))
}

// Flow Metrics

func (m *metricsService) IncFlowSubmissions(flow, outcome string) {
	m.flowSubmissionsTotal.WithLabelValues(flow, outcome).Inc()
}

func (m *metricsService) ObserveFlowDuration(flow string, duration float64) {
	m.flowDuration.WithLabelValues(flow).Observe(duration)
}

// CoinJoin Room Metrics

func (m *metricsService) SetRoomsInPhase(phase string, count int) {
	m.roomsInPhase.WithLabelValues(phase).Set(float64(count))
}
