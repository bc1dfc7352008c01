package derivation

import "fmt"

// FormatError is returned when a canonical derivation string cannot be parsed into an identity.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid derivation path %q: %s", e.Input, e.Reason)
}

// DecodeError is returned when a token is not a value produced by Encode.
type DecodeError struct {
	Token string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid derivation token %q: %v", e.Token, e.Err)
	}
	return fmt.Sprintf("invalid derivation token %q", e.Token)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
