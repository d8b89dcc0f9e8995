package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeInvalidURL        ErrorType = "invalid_url"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeParsing           ErrorType = "parsing"
	ErrorTypeNetwork           ErrorType = "network"
	ErrorTypeRateLimit         ErrorType = "rate_limit"
	ErrorTypeServerError       ErrorType = "server_error"
	ErrorTypeCookieUnavailable ErrorType = "cookie_unavailable"
	ErrorTypeIndexOutOfRange   ErrorType = "index_out_of_range"
	ErrorTypeStorage           ErrorType = "storage"
	ErrorTypeCanceled          ErrorType = "canceled"
	ErrorTypeUnknown           ErrorType = "unknown"
)

// Error represents a typed pipeline error
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a typed error around a cause
func Wrap(t ErrorType, err error, msg string) *Error {
	message := msg
	if err != nil {
		message = fmt.Sprintf("%s: %v", msg, err)
	}
	return &Error{Type: t, Message: message, Err: err}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 408, 425, 429:
		return true
	case 401, 403, 404, 410:
		return false
	default:
		return statusCode >= 500
	}
}

// TypeOf returns the ErrorType carried by err. Context errors map to
// ErrorTypeCanceled, anything untyped to ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var typed *Error
	if stderrors.As(err, &typed) {
		return typed.Type
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeCanceled
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given type
func Is(err error, t ErrorType) bool {
	return TypeOf(err) == t
}
