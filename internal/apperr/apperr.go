package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an API-visible error carrying an HTTP status and a stable
// machine-readable code alongside the human-readable message.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code,omitempty"`
	Message string `json:"error"`
	cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As
func (e *Error) Unwrap() error {
	return e.cause
}

// WithCause attaches an underlying error without changing what the client sees
func (e *Error) WithCause(err error) *Error {
	clone := *e
	clone.cause = err
	return &clone
}

// New creates an Error with an explicit status, code and message
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// BadRequest creates a 400 validation error
func BadRequest(code, message string) *Error {
	return New(http.StatusBadRequest, code, message)
}

// Unauthorized creates the uniform 401 error. The message is deliberately
// generic so a caller cannot tell which factor failed.
func Unauthorized() *Error {
	return New(http.StatusUnauthorized, "unauthorized", "Authentication required")
}

// NotFound creates a 404 error
func NotFound(code, message string) *Error {
	return New(http.StatusNotFound, code, message)
}

// Conflict creates a 409 error
func Conflict(code, message string) *Error {
	return New(http.StatusConflict, code, message)
}

// Upstream creates a 502 error for catalog failures
func Upstream(code, message string) *Error {
	return New(http.StatusBadGateway, code, message)
}

// Internal creates the generic 500 error. The cause is logged server-side,
// never returned to the client.
func Internal(err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    "internal",
		Message: "Something went wrong",
		cause:   err,
	}
}

// From extracts an *Error from err, or wraps it as Internal
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
