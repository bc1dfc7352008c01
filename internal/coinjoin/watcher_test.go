package coinjoin

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/guregu/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/statewallet/wallet-session/internal/entities"
	"github.com/statewallet/wallet-session/internal/gateway"
)

func newTestWatcher(t *testing.T, env *testEnv) *RoomWatcher {
	t.Helper()
	watcher, err := NewRoomWatcher(RoomWatcherConfig{
		Gateway:        env.gw,
		Reader:         env.reader,
		MetricsService: env.metrics,
		PollInterval:   time.Hour,
		PollsPerSecond: 1000,
	})
	require.NoError(t, err)
	t.Cleanup(watcher.Stop)
	return watcher
}

func TestNewRoomWatcher(t *testing.T) {
	env := newTestEnv(t)

	_, err := NewRoomWatcher(RoomWatcherConfig{Gateway: env.gw, Reader: env.reader, MetricsService: env.metrics})
	require.ErrorContains(t, err, "poll interval must be positive")

	_, err = NewRoomWatcher(RoomWatcherConfig{Gateway: env.gw, Reader: env.reader, PollInterval: time.Second, PollsPerSecond: 1})
	require.EqualError(t, err, "metrics service cannot be nil")
}

func TestRoomWatcher_Watch(t *testing.T) {
	env := newTestEnv(t)
	watcher := newTestWatcher(t, env)

	ended := awaitingSignRoom("r1")
	ended.Status = entities.RoomStatusSuccess
	ended.Txid = null.StringFrom("abc")
	open := awaitingSignRoom("r2")

	env.bridge.
		On("Invoke", mock.Anything, "plugin:coinjoin|get_rooms", map[string]any{"deriv": testDeriv}).Return(roomsJSON(t, ended, open), nil).Twice().
		On("Invoke", mock.Anything, "plugin:coinjoin|get_status", map[string]any{"roomId": "r2"}).Return(`{"status":1}`, nil).Twice().
		On("Invoke", mock.Anything, "plugin:coinjoin|get_signed", map[string]any{"deriv": testDeriv, "roomId": "r2"}).Return(`{"status":0}`, nil).Twice()

	eventSub := gateway.NewSubscription(1, nil)
	env.events.On("Subscribe", mock.Anything, entities.RegisterCompleteEventName).Return(eventSub, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan []RoomView, 4)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- watcher.Watch(ctx, testIdentity, func(views []RoomView) {
			updates <- views
		})
	}()

	first := receiveViews(t, updates)
	require.Len(t, first, 2)
	assert.Equal(t, PhaseEnded, first[0].Phase)
	assert.Equal(t, PhaseAwaitingSign, first[1].Phase)
	assert.Equal(t, entities.RoomStatusWaitForSignature, first[1].CoordinatorStatus)
	assert.False(t, first[1].Signed)

	payload, err := json.Marshal(entities.RegisterCompleteEvent{RoomID: "r2", Status: 1})
	require.NoError(t, err)
	require.True(t, eventSub.Deliver(ctx, gateway.Event{Name: entities.RegisterCompleteEventName, Payload: payload}))

	second := receiveViews(t, updates)
	require.Len(t, second, 2)
	assert.Equal(t, PhaseAwaitingSign, second[1].Phase)
	env.bridge.AssertNumberOfCalls(t, "Invoke", 6)

	cancel()
	select {
	case err := <-watchErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
	select {
	case <-eventSub.Done():
	default:
		t.Fatal("event subscription was not closed")
	}
	assert.Zero(t, env.cache.Len())
}

func TestRoomWatcher_WatchWithoutEvents(t *testing.T) {
	env := newTestEnv(t)
	watcher := newTestWatcher(t, env)

	env.bridge.On("Invoke", mock.Anything, "plugin:coinjoin|get_rooms", map[string]any{"deriv": testDeriv}).Return(`[]`, nil).Once()
	env.events.On("Subscribe", mock.Anything, entities.RegisterCompleteEventName).Return(nil, assert.AnError).Once()

	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan []RoomView, 1)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- watcher.Watch(ctx, testIdentity, func(views []RoomView) {
			updates <- views
		})
	}()

	assert.Empty(t, receiveViews(t, updates))
	cancel()
	require.NoError(t, <-watchErr)
}

func receiveViews(t *testing.T, updates <-chan []RoomView) []RoomView {
	t.Helper()
	select {
	case views := <-updates:
		return views
	case <-time.After(5 * time.Second):
		t.Fatal("no room update received")
		return nil
	}
}
