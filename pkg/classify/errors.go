package classify

import (
	"errors"
	"fmt"
)

// Sentinel errors for service failures.
var (
	// ErrNotConfigured is returned when a service URL is not set.
	ErrNotConfigured = errors.New("classify: service endpoint not configured")

	// ErrInvalidResponse is returned when a service responds outside
	// its contract.
	ErrInvalidResponse = errors.New("classify: invalid service response")
)

// APIError represents a non-200 response from a service.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("classify [%s]: API error %d: %s", e.Service, e.StatusCode, e.Message)
}

// IsServerError returns true for server-side errors (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRetryable returns true if the upload should be retried.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || e.IsServerError()
}

// ConnectionError wraps a transport failure with service context.
type ConnectionError struct {
	Service string
	Err     error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("classify [%s]: connection failed: %v", e.Service, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}
