package types

import "fmt"

// ErrorCode represents a unified error code across the orchestration core.
type ErrorCode string

// Session and store error codes
const (
	ErrSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	ErrSessionCreation ErrorCode = "SESSION_CREATION"
	ErrMemoryCorrupt   ErrorCode = "MEMORY_CORRUPT"
	ErrStorageIO       ErrorCode = "STORAGE_IO"
)

// Runtime error codes
const (
	ErrRuntimeFailure ErrorCode = "RUNTIME_FAILURE"
	ErrRuntimeTimeout ErrorCode = "RUNTIME_TIMEOUT"
)

// Protocol error codes
const (
	ErrMalformedFrame  ErrorCode = "MALFORMED_FRAME"
	ErrUnknownType     ErrorCode = "UNKNOWN_TYPE"
	ErrInvalidFrame    ErrorCode = "INVALID_FRAME"
	ErrUpstreamClosed  ErrorCode = "UPSTREAM_CLOSED"
	ErrInternalError   ErrorCode = "INTERNAL_ERROR"
	ErrCacheUnavailble ErrorCode = "CACHE_UNAVAILABLE"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsCode reports whether err is a *Error carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	typed, ok := err.(*Error)
	return ok && typed.Code == code
}
