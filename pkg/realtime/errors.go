package realtime

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrMissingAPIKey is returned when no credential is configured.
	ErrMissingAPIKey = errors.New("realtime: API key required")

	// ErrNotConnected is returned when writing to a closed or never
	// opened connection.
	ErrNotConnected = errors.New("realtime: not connected")
)

// ConnectionError wraps a failed handshake with the Realtime endpoint.
// A call that hits this is aborted before any relay starts.
type ConnectionError struct {
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("realtime: connection failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}
