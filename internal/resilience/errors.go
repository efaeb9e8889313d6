// Package resilience provides retry and circuit-breaker patterns for
// external service calls, plus structured classification of their failures.
package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/sells-group/resolver-cli/internal/model"
)

// StatusError carries an HTTP status code from a service client.
type StatusError struct {
	Err        error
	StatusCode int
}

func (e *StatusError) Error() string { return e.Err.Error() }

func (e *StatusError) Unwrap() error { return e.Err }

// NewStatusError wraps an error with the HTTP status that produced it.
func NewStatusError(err error, statusCode int) *StatusError {
	return &StatusError{Err: err, StatusCode: statusCode}
}

// Classify maps a Go error from a service call onto the structured error
// kind recorded on the row.
func Classify(err error) model.ErrorKind {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return model.ErrAdapterTimeout
	}
	if errors.Is(err, context.Canceled) {
		return model.ErrDeadlineExceeded
	}

	var se *StatusError
	if errors.As(err, &se) {
		if se.StatusCode == 429 {
			return model.ErrAdapterQuota
		}
		return model.ErrAdapterHTTP
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.ErrAdapterTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit"):
		return model.ErrAdapterQuota
	case strings.Contains(msg, "unmarshal") || strings.Contains(msg, "parse"):
		return model.ErrParse
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return model.ErrAdapterTimeout
	}

	return model.ErrAdapterHTTP
}

// IsTransient reports whether an error is safe to retry: explicit transient
// statuses, network timeouts, and connection-level failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return IsTransientHTTPStatus(se.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus reports whether the status code indicates a
// server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
