package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Status is the coarse state reported to callers ("initializing", "error").
	Status string `json:"status"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Status:     StatusError,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// BackendInitializing reports that the backend is not reachable yet because
// it has not finished starting. Callers are expected to retry.
func BackendInitializing() *AppError {
	return &AppError{
		Code:       ErrCodeServiceUnavailable,
		Message:    "The backend is still initializing. Please retry shortly.",
		Status:     StatusInitializing,
		HTTPStatus: http.StatusServiceUnavailable,
		Retryable:  true,
	}
}

// BackendFailure reports a transport failure talking to a backend that was
// previously observed ready. The message carries the underlying error.
func BackendFailure(cause error) *AppError {
	msg := "backend request failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &AppError{
		Code:       ErrCodeBackend,
		Message:    msg,
		Status:     StatusError,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NotFound creates a new AppError for a path no route serves.
func NotFound(path string) *AppError {
	return &AppError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("No route for %s.", path),
		Status:     StatusError,
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"path": path},
	}
}

// Timeout creates a new AppError for an operation that took too long.
func Timeout(operation string) *AppError {
	return &AppError{
		Code:       ErrCodeTimeout,
		Message:    "The request took too long. Please try again.",
		Status:     StatusError,
		HTTPStatus: http.StatusGatewayTimeout,
		Retryable:  true,
		Details:    map[string]any{"operation": operation},
	}
}

// Validation creates a new AppError for invalid input or configuration.
func Validation(message string) *AppError {
	return &AppError{
		Code:       ErrCodeInvalidInput,
		Message:    message,
		Status:     StatusError,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Internal creates a new AppError for an internal server error.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       ErrCodeInternal,
		Message:    "An unexpected error occurred.",
		Status:     StatusError,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}
