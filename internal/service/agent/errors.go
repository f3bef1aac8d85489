package agent

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is matched by every ValidationError.
var ErrEmptyInput = errors.New("user text is empty")

// ValidationError rejects input before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrEmptyInput) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrEmptyInput
}

// TransportError covers a non-success HTTP status and connection or read
// failures. StatusCode is zero when no response was received.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("agent stream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("agent stream failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
