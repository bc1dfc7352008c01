package gateway

import (
	"errors"
	"fmt"
)

// HostErrorCodeConflict marks a command the host rejected because the targeted object is no
// longer in a state that allows it.
const HostErrorCodeConflict = "conflict"

// HostError is the failure reported by the wallet host. Message is opaque.
type HostError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"error"`
}

func (e *HostError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return e.Message
}

// RemoteCommandError wraps every failed command invocation.
type RemoteCommandError struct {
	Command string
	Err     error
}

func (e *RemoteCommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *RemoteCommandError) Unwrap() error {
	return e.Err
}

// IsConflict reports whether err carries a host conflict reply.
func IsConflict(err error) bool {
	var hostErr *HostError
	return errors.As(err, &hostErr) && hostErr.Code == HostErrorCodeConflict
}
