package providers

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyPayload is returned when the inbound payload is empty or blank.
var ErrEmptyPayload = errors.New("request payload is empty or invalid")

// TimeoutError represents a connect or read timeout of a single attempt.
type TimeoutError struct {
	// Provider is the id of the provider that timed out
	Provider string

	// URL is the endpoint that was called
	URL string

	// Timeout is the configured timeout
	Timeout time.Duration

	// Cause is the underlying network error
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("connection to %s timed out after %d ms", e.URL, e.Timeout.Milliseconds())
}

// Unwrap returns the underlying error for error chain support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// TransportError represents any non-timeout I/O failure of a single attempt.
type TransportError struct {
	// Provider is the id of the provider
	Provider string

	// URL is the endpoint that was called
	URL string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ExhaustedError is returned when every attempt against a provider failed.
// Cause holds the last timeout observed; transport failures are not retained,
// so Cause is nil when no attempt timed out.
type ExhaustedError struct {
	// Provider is the id of the provider
	Provider string

	// URL is the endpoint that was called
	URL string

	// Attempts is the number of attempts made
	Attempts int

	// Cause is the last *TimeoutError, or nil
	Cause error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("Request to %s failed", e.URL)
}

// Unwrap returns the underlying error for error chain support.
func (e *ExhaustedError) Unwrap() error {
	return e.Cause
}

// IsTimeout reports whether err is or wraps a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
