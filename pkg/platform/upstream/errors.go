// Package upstream normalizes failures of the HTTP services this module depends on:
// the OCR sidecar, document hosts and the reference-number service.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorCategory defines the normalized failure taxonomy
type ErrorCategory string

const (
	// ErrorTimeout indicates the service took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the service returned invalid/malformed data
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorAuthentication indicates credential or permission issues
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorOutage indicates the service is unavailable
	ErrorOutage ErrorCategory = "outage"

	// ErrorNotFound indicates the requested resource doesn't exist
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorRateLimited indicates too many requests
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// Error wraps upstream failures with normalized categorization
type Error struct {
	Category   ErrorCategory
	Service    string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Service, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Service, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// New creates a normalized upstream error. Timeouts, outages and rate limiting are
// retryable.
func New(category ErrorCategory, service, message string, underlying error) *Error {
	retryable := category == ErrorTimeout ||
		category == ErrorOutage ||
		category == ErrorRateLimited

	return &Error{
		Category:   category,
		Service:    service,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Retryable
	}
	return false
}

// CategoryOf returns the category of err, or ErrorInternal for uncategorized errors.
func CategoryOf(err error) ErrorCategory {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Category
	}
	return ErrorInternal
}

// FromStatus categorizes a non-2xx HTTP status.
func FromStatus(service string, status int, body string) *Error {
	msg := fmt.Sprintf("unexpected status %d", status)
	if body != "" {
		msg += ": " + body
	}
	switch {
	case status == http.StatusNotFound:
		return New(ErrorNotFound, service, msg, nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return New(ErrorAuthentication, service, msg, nil)
	case status == http.StatusTooManyRequests:
		return New(ErrorRateLimited, service, msg, nil)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return New(ErrorTimeout, service, msg, nil)
	case status >= 500:
		return New(ErrorOutage, service, msg, nil)
	default:
		return New(ErrorBadData, service, msg, nil)
	}
}

// FromTransport categorizes an error returned by http.Client.Do.
func FromTransport(service string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return New(ErrorTimeout, service, "request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return New(ErrorTimeout, service, "request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return New(ErrorInternal, service, "request cancelled", err)
	}
	return New(ErrorOutage, service, "request failed", err)
}
