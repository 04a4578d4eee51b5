// Package clients provides HTTP client adapters for downstream services.
package clients

import (
	"errors"
	"fmt"
	"net/http"
)

// Client errors represent failures in the HTTP client layer.
// These are distinct from domain errors - they represent infrastructure failures
// that should be translated to domain errors by the calling code.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	// This indicates the downstream service is unhealthy and requests are being blocked.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded is returned after all retry attempts have been exhausted.
	// The last attempt's error is wrapped as well.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// StatusError is a 5xx response that was retried until attempts ran out.
type StatusError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("server error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
