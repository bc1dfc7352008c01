package gateway

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"
)

type MockBridge struct {
	mock.Mock
}

var _ Bridge = (*MockBridge)(nil)

func (m *MockBridge) Invoke(ctx context.Context, command string, args map[string]any) (json.RawMessage, error) {
	a := m.Called(ctx, command, args)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	switch v := a.Get(0).(type) {
	case json.RawMessage:
		return v, a.Error(1)
	case string:
		return json.RawMessage(v), a.Error(1)
	default:
		return a.Get(0).(json.RawMessage), a.Error(1)
	}
}

type MockEventSource struct {
	mock.Mock
}

var _ EventSource = (*MockEventSource)(nil)

func (m *MockEventSource) Subscribe(ctx context.Context, event string) (*Subscription, error) {
	a := m.Called(ctx, event)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).(*Subscription), a.Error(1)
}
