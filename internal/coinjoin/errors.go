package coinjoin

import (
	"errors"
	"fmt"
)

// ErrSignInFlight is returned when the room is already being signed.
var ErrSignInFlight = errors.New("a signature for this room is already in flight")

// StateConflictError is returned when the sign action is attempted outside the phase that
// allows it, either according to the cached room or to the host.
type StateConflictError struct {
	RoomID string
	Phase  Phase
	Reason string
	Err    error
}

func (e *StateConflictError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("room %s cannot be signed in phase %s: %s", e.RoomID, e.Phase, e.Reason)
	}
	return fmt.Sprintf("room %s cannot be signed in phase %s", e.RoomID, e.Phase)
}

func (e *StateConflictError) Unwrap() error {
	return e.Err
}
