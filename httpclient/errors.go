package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	// ErrCodeTimeout indicates the attempt ran out of time.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates a connection failure (refused, DNS, reset).
	ErrCodeConnection
	// ErrCodeStatus indicates an error or unexpected status code.
	ErrCodeStatus
	// ErrCodeRequest indicates the request could not be built.
	ErrCodeRequest
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeStatus:
		return "status"
	case ErrCodeRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Error is a classified HTTP client error.
type Error struct {
	// StatusCode is the HTTP status code (0 for connection-level errors).
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewTimeoutError creates a timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
}

// NewConnectionError creates a connection error.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

// NewStatusError creates an error for an unwanted status code. 5xx and 429
// are retryable.
func NewStatusError(status int) *Error {
	return &Error{
		StatusCode: status,
		Code:       ErrCodeStatus,
		Message:    http.StatusText(status),
		Retryable:  status >= 500 || status == http.StatusTooManyRequests,
	}
}

// ClassifyStatus returns an error for status, or nil when it is acceptable.
// With expect set only that status is acceptable; otherwise anything below
// 400 is.
func ClassifyStatus(status, expect int) error {
	switch {
	case expect != 0 && status == expect:
		return nil
	case expect != 0:
		e := NewStatusError(status)
		e.Message = fmt.Sprintf("expected %d, got %s", expect, http.StatusText(status))
		e.Retryable = true
		return e
	case status >= 400:
		return NewStatusError(status)
	}
	return nil
}

// IsRetryable reports whether err is a retryable client error.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
