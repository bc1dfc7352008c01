package flows

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/statewallet/wallet-session/internal/validators"
)

// ErrSubmissionInFlight is returned when a flow is submitted while its previous submission is
// still running.
var ErrSubmissionInFlight = errors.New("submission already in flight")

// ValidationError is a pre-flight check that failed for a single input field. Nothing was sent
// to the host.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// RemoteVerificationError is returned when the host refused to verify an inbound transfer.
type RemoteVerificationError struct {
	Err error
}

func (e *RemoteVerificationError) Error() string {
	return fmt.Sprintf("verifying transfer: %v", e.Err)
}

func (e *RemoteVerificationError) Unwrap() error {
	return e.Err
}

// SubmitError is the structured failure of a flow submission. Fields holds messages for
// individual inputs and Root holds a message for the whole form; one of them is always set.
type SubmitError struct {
	Fields map[string]string
	Root   string
	Err    error
}

func (e *SubmitError) Error() string {
	if e.Root != "" {
		return e.Root
	}
	fields := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		fields = append(fields, field+": "+msg)
	}
	sort.Strings(fields)
	return strings.Join(fields, "; ")
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// IsFieldError reports whether the failure is attached to inputs rather than the whole form.
func (e *SubmitError) IsFieldError() bool {
	return len(e.Fields) > 0
}

// newSubmitError turns any submission failure into a *SubmitError.
func newSubmitError(err error) *SubmitError {
	var submitErr *SubmitError
	if errors.As(err, &submitErr) {
		return submitErr
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return &SubmitError{Fields: map[string]string{validationErr.Field: validationErr.Message}, Err: err}
	}

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return &SubmitError{Fields: validators.ParseValidationError(vErrs), Err: err}
	}

	return &SubmitError{Root: err.Error(), Err: err}
}

// outcome is the metrics label of a finished submission.
func outcome(err error) string {
	var validationErr *ValidationError
	var vErrs validator.ValidationErrors
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrSubmissionInFlight):
		return "in_flight"
	case errors.As(err, &validationErr), errors.As(err, &vErrs):
		return "invalid"
	default:
		return "failed"
	}
}
