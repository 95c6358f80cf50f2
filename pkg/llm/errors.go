package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
)

var (
	// ErrUnknownProvider indicates a provider name outside the supported set.
	ErrUnknownProvider = errors.New("unknown llm provider")
	// ErrMissingAPIKey indicates a provider that requires a key was configured without one.
	ErrMissingAPIKey = errors.New("llm api key required")
	// ErrEmptyResponse indicates the model returned no content.
	ErrEmptyResponse = errors.New("empty llm response")
	// ErrCircuitOpen indicates calls are being rejected after repeated failures.
	ErrCircuitOpen = errors.New("llm circuit breaker open")
	// ErrTimeout indicates the model endpoint or a gateway in front of it timed out.
	ErrTimeout = errors.New("llm request timed out")
)

// StatusError carries the HTTP status returned by a model endpoint.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm status %d: %v", e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// IsTimeout reports whether err stems from a deadline, a gateway timeout or a
// response whose text reports a timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusGatewayTimeout {
		return true
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"timeout", "timed out", "504", "gateway time-out"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// retryable reports whether a failed attempt is worth repeating.
func retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, ErrMissingAPIKey), errors.Is(err, ErrUnknownProvider):
		return false
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusTooManyRequests,
			se.StatusCode == http.StatusRequestTimeout,
			se.StatusCode >= 500:
			return true
		default:
			return false
		}
	}

	return true
}
