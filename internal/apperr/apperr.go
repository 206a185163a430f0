package apperr

import (
	"errors"
	"net/http"
)

// Error is an application error that maps to an HTTP status and a
// client-facing message. Handlers return these and the central error
// handler renders the response envelope.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an application error with an explicit status.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Wrap attaches an underlying cause to an application error. The cause
// is logged server-side and never leaks into the response.
func Wrap(status int, message string, err error) *Error {
	return &Error{Status: status, Message: message, Err: err}
}

// BadRequest is a 400 for malformed or invalid input.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Unauthenticated is a 401 for missing or invalid credentials.
func Unauthenticated(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

// SubscriptionRequired is a 402 for an expired or unselected plan.
func SubscriptionRequired(message string) *Error {
	return New(http.StatusPaymentRequired, message)
}

// Forbidden is a 403 for an authenticated caller without privilege.
func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

// NotFound is a 404 for a missing entity.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Conflict reports a duplicate natural key. Rendered as a 400 so the
// client envelope stays within the published status codes.
func Conflict(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// TooManyRequests is a 429 for rate-limited callers.
func TooManyRequests(message string) *Error {
	return New(http.StatusTooManyRequests, message)
}

// Internal is a 500 wrapping an unexpected failure.
func Internal(err error) *Error {
	return Wrap(http.StatusInternalServerError, "Internal server error", err)
}

// Status extracts the HTTP status from any error, defaulting to 500.
func Status(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
