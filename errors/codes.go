package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Availability errors (retryable by the caller).
const (
	// ErrCodeServiceUnavailable indicates the backend has not come up yet.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Request errors
const (
	// ErrCodeNotFound indicates no route matched the request.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidInput indicates the input (or configuration) is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeBackend indicates the backend failed after it was known to be ready.
	ErrCodeBackend ErrorCode = "BACKEND_ERROR"
)

// Status values reported in the "status" field of error bodies.
const (
	StatusInitializing = "initializing"
	StatusError        = "error"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeBackend:            false,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
