package coinjoin

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/guregu/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/statewallet/wallet-session/internal/apptracker"
	"github.com/statewallet/wallet-session/internal/entities"
	"github.com/statewallet/wallet-session/internal/gateway"
	"github.com/statewallet/wallet-session/internal/queries"
)

var signArgs = map[string]any{"deriv": testDeriv, "roomId": "r1"}

func newTestSigner(t *testing.T, env *testEnv, policy RetryPolicy) (*Signer, *apptracker.MockAppTracker) {
	t.Helper()
	tracker := &apptracker.MockAppTracker{}
	t.Cleanup(func() { tracker.AssertExpectations(t) })
	signer, err := NewSigner(env.gw, env.reader, tracker, policy)
	require.NoError(t, err)
	return signer, tracker
}

func expectRoomReads(t *testing.T, env *testEnv, room entities.Room, signedStatus string) {
	t.Helper()
	env.bridge.
		On("Invoke", mock.Anything, "plugin:coinjoin|get_rooms", map[string]any{"deriv": testDeriv}).Return(roomsJSON(t, room), nil).
		On("Invoke", mock.Anything, "plugin:coinjoin|get_signed", map[string]any{"deriv": testDeriv, "roomId": room.ID}).Return(signedStatus, nil)
}

func TestNewSigner(t *testing.T) {
	env := newTestEnv(t)

	_, err := NewSigner(env.gw, env.reader, &apptracker.MockAppTracker{}, RetryPolicy{ExtraAttempts: -1})
	require.ErrorContains(t, err, "cannot be negative")

	_, err = NewSigner(env.gw, env.reader, nil, RetryPolicy{})
	require.EqualError(t, err, "app tracker cannot be nil")
}

func TestSigner_Sign(t *testing.T) {
	ctx := context.Background()

	t.Run("success_invalidates_room_keys", func(t *testing.T) {
		env := newTestEnv(t)
		signer, _ := newTestSigner(t, env, RetryPolicy{})
		expectRoomReads(t, env, awaitingSignRoom("r1"), `{"status":0}`)
		env.bridge.On("Invoke", mock.Anything, "plugin:coinjoin|sign_txn", signArgs).
			Return(`{"room":"r1","signed_blinded_output":"out"}`, nil).Once()

		roomsSub := env.cache.Subscribe(queries.RoomsKey(testDeriv))
		defer roomsSub.Close()
		statusSub := env.cache.Subscribe(queries.RoomStatusKey("r1"))
		defer statusSub.Close()
		signedSub := env.cache.Subscribe(queries.RoomSignedKey(testDeriv, "r1"))
		defer signedSub.Close()

		res, err := signer.Sign(ctx, testIdentity, "r1")
		require.NoError(t, err)
		assert.Equal(t, "r1", res.Room)

		assert.True(t, roomsSub.Snapshot().IsStale)
		assert.True(t, signedSub.Snapshot().IsStale)
		assert.Equal(t, uint64(1), statusSub.Snapshot().Version)
		assert.False(t, signer.InFlight("r1"))
	})

	t.Run("second_call_while_in_flight_is_rejected", func(t *testing.T) {
		env := newTestEnv(t)
		signer, _ := newTestSigner(t, env, RetryPolicy{})
		expectRoomReads(t, env, awaitingSignRoom("r1"), `{"status":0}`)

		started := make(chan struct{})
		release := make(chan struct{})
		env.bridge.On("Invoke", mock.Anything, "plugin:coinjoin|sign_txn", signArgs).
			Run(func(mock.Arguments) {
				close(started)
				<-release
			}).
			Return(`{"room":"r1","signed_blinded_output":"out"}`, nil).Once()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := signer.Sign(ctx, testIdentity, "r1")
			assert.NoError(t, err)
		}()

		<-started
		assert.True(t, signer.InFlight("r1"))
		_, err := signer.Sign(ctx, testIdentity, "r1")
		require.ErrorIs(t, err, ErrSignInFlight)

		close(release)
		wg.Wait()
		env.bridge.AssertNumberOfCalls(t, "Invoke", 3)
	})

	t.Run("registering_room_is_a_conflict", func(t *testing.T) {
		env := newTestEnv(t)
		signer, _ := newTestSigner(t, env, RetryPolicy{})
		expectRoomReads(t, env, registeringRoom("r1"), `{"status":0}`)

		_, err := signer.Sign(ctx, testIdentity, "r1")
		var conflictErr *StateConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, PhaseRegistering, conflictErr.Phase)
		env.bridge.AssertNotCalled(t, "Invoke", mock.Anything, "plugin:coinjoin|sign_txn", mock.Anything)
	})

	t.Run("already_signed_is_a_conflict", func(t *testing.T) {
		env := newTestEnv(t)
		signer, _ := newTestSigner(t, env, RetryPolicy{})
		expectRoomReads(t, env, awaitingSignRoom("r1"), `{"status":1}`)

		_, err := signer.Sign(ctx, testIdentity, "r1")
		var conflictErr *StateConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, PhaseSigned, conflictErr.Phase)
	})

	t.Run("completed_room_is_a_conflict", func(t *testing.T) {
		env := newTestEnv(t)
		signer, _ := newTestSigner(t, env, RetryPolicy{})
		room := awaitingSignRoom("r1")
		room.Status = entities.RoomStatusSuccess
		room.Txid = null.StringFrom("abc")
		expectRoomReads(t, env, room, `{"status":0}`)

		_, err := signer.Sign(ctx, testIdentity, "r1")
		var conflictErr *StateConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, PhaseEnded, conflictErr.Phase)
	})

	t.Run("unknown_room_is_a_conflict", func(t *testing.T) {
		env := newTestEnv(t)
		signer, _ := newTestSigner(t, env, RetryPolicy{})
		env.bridge.On("Invoke", mock.Anything, "plugin:coinjoin|get_rooms", map[string]any{"deriv": testDeriv}).Return(`[]`, nil).Once()

		_, err := signer.Sign(ctx, testIdentity, "r1")
		var conflictErr *StateConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.Contains(t, err.Error(), "not listed")
	})

	t.Run("host_conflict_is_not_retried", func(t *testing.T) {
		env := newTestEnv(t)
		signer, _ := newTestSigner(t, env, RetryPolicy{ExtraAttempts: 1})
		expectRoomReads(t, env, awaitingSignRoom("r1"), `{"status":0}`)
		env.bridge.On("Invoke", mock.Anything, "plugin:coinjoin|sign_txn", signArgs).
			Return(nil, &gateway.HostError{Message: "window closed", Code: gateway.HostErrorCodeConflict}).Once()

		_, err := signer.Sign(ctx, testIdentity, "r1")
		var conflictErr *StateConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.True(t, gateway.IsConflict(err))
	})
}

func TestSigner_SignReplies(t *testing.T) {
	ctx := context.Background()

	t.Run("null_reply_is_a_signature", func(t *testing.T) {
		env := newTestEnv(t)
		signer, _ := newTestSigner(t, env, RetryPolicy{ExtraAttempts: 1})
		expectRoomReads(t, env, awaitingSignRoom("r1"), `{"status":0}`)
		env.bridge.On("Invoke", mock.Anything, "plugin:coinjoin|sign_txn", signArgs).Return("null", nil).Once()

		roomsSub := env.cache.Subscribe(queries.RoomsKey(testDeriv))
		defer roomsSub.Close()
		signedSub := env.cache.Subscribe(queries.RoomSignedKey(testDeriv, "r1"))
		defer signedSub.Close()

		res, err := signer.Sign(ctx, testIdentity, "r1")
		require.NoError(t, err)
		assert.Nil(t, res)
		assert.True(t, roomsSub.Snapshot().IsStale)
		assert.True(t, signedSub.Snapshot().IsStale)
		env.bridge.AssertNumberOfCalls(t, "Invoke", 3)
	})

	t.Run("undecodable_reply_is_not_signed_again", func(t *testing.T) {
		env := newTestEnv(t)
		signer, tracker := newTestSigner(t, env, RetryPolicy{ExtraAttempts: 1})
		expectRoomReads(t, env, awaitingSignRoom("r1"), `{"status":0}`)
		env.bridge.On("Invoke", mock.Anything, "plugin:coinjoin|sign_txn", signArgs).Return(`{"room":""}`, nil).Once()
		tracker.On("CaptureException", mock.Anything).Return().Once()

		_, err := signer.Sign(ctx, testIdentity, "r1")
		require.ErrorContains(t, err, "decoding plugin:coinjoin|sign_txn reply")
		var remoteErr *gateway.RemoteCommandError
		assert.False(t, errors.As(err, &remoteErr))
		env.bridge.AssertNumberOfCalls(t, "Invoke", 3)
	})
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&gateway.RemoteCommandError{Command: "sign_txn", Err: errors.New("timeout")}))
	assert.False(t, isRetryable(&gateway.RemoteCommandError{Command: "sign_txn", Err: &gateway.HostError{Message: "closed", Code: gateway.HostErrorCodeConflict}}))
	assert.False(t, isRetryable(&gateway.RemoteCommandError{Command: "sign_txn", Err: context.Canceled}))
	assert.False(t, isRetryable(errors.New("decoding plugin:coinjoin|sign_txn reply: validating")))
}

func TestSigner_RetryPolicy(t *testing.T) {
	testCases := []struct {
		name          string
		extraAttempts int
		wantCalls     int
	}{
		{name: "no_retry_by_default", extraAttempts: 0, wantCalls: 1},
		{name: "retry_once", extraAttempts: 1, wantCalls: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			signer, tracker := newTestSigner(t, env, RetryPolicy{ExtraAttempts: tc.extraAttempts})
			expectRoomReads(t, env, awaitingSignRoom("r1"), `{"status":0}`)
			hostErr := errors.New("coordinator unreachable")
			env.bridge.On("Invoke", mock.Anything, "plugin:coinjoin|sign_txn", signArgs).Return(nil, hostErr).Times(tc.wantCalls)
			tracker.On("CaptureException", mock.Anything).Return().Once()

			_, err := signer.Sign(context.Background(), testIdentity, "r1")
			require.ErrorIs(t, err, hostErr)
			var remoteErr *gateway.RemoteCommandError
			require.ErrorAs(t, err, &remoteErr)
			assert.False(t, signer.InFlight("r1"))
		})
	}
}
