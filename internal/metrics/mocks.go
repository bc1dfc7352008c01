package metrics

import (
	"github.com/alitto/pond/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
)

// MockMetricsService is a mock implementation of MetricsService
type MockMetricsService struct {
	mock.Mock
}

var _ MetricsService = (*MockMetricsService)(nil)

// NewMockMetricsService creates a new mock metrics service
func NewMockMetricsService() *MockMetricsService {
	return &MockMetricsService{}
}

func (m *MockMetricsService) RegisterPoolMetrics(pool string, p pond.Pool) {
	m.Called(pool, p)
}

func (m *MockMetricsService) GetRegistry() *prometheus.Registry {
	args := m.Called()
	return args.Get(0).(*prometheus.Registry)
}

func (m *MockMetricsService) IncBridgeCalls(command string) {
	m.Called(command)
}

func (m *MockMetricsService) ObserveBridgeCallDuration(command string, duration float64) {
	m.Called(command, duration)
}

func (m *MockMetricsService) IncBridgeCallErrors(command, errorType string) {
	m.Called(command, errorType)
}

func (m *MockMetricsService) IncBridgeEvents(event string) {
	m.Called(event)
}

func (m *MockMetricsService) IncCacheHits(resource string) {
	m.Called(resource)
}

func (m *MockMetricsService) IncCacheMisses(resource string) {
	m.Called(resource)
}

func (m *MockMetricsService) IncCacheFetches(resource string, success bool) {
	m.Called(resource, success)
}

func (m *MockMetricsService) IncCacheStaleDiscards(resource string) {
	m.Called(resource)
}

func (m *MockMetricsService) IncCacheInvalidations(resource string, count int) {
	m.Called(resource, count)
}

func (m *MockMetricsService) SetCacheEntries(count int) {
	m.Called(count)
}

func (m *MockMetricsService) IncFlowSubmissions(flow, outcome string) {
	m.Called(flow, outcome)
}

func (m *MockMetricsService) ObserveFlowDuration(flow string, duration float64) {
	m.Called(flow, duration)
}

func (m *MockMetricsService) SetRoomsInPhase(phase string, count int) {
	m.Called(phase, count)
}
