package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
)

// ErrorResponse is the flat JSON body written for every error.
//
//	{"error": "SERVICE_UNAVAILABLE", "message": "...", "status": "initializing"}
type ErrorResponse struct {
	Error   ErrorCode      `json:"error"`
	Message string         `json:"message"`
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// ToResponse converts an AppError to an ErrorResponse for JSON serialization.
func (e *AppError) ToResponse() ErrorResponse {
	status := e.Status
	if status == "" {
		status = StatusError
	}
	return ErrorResponse{
		Error:   e.Code,
		Message: e.Message,
		Status:  status,
		Details: e.Details,
	}
}

// WriteJSON writes the error as JSON with its HTTP status. Handlers outside
// gin (the proxy, net/http middleware) use this.
func (e *AppError) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(e.HTTPStatus)
	_ = json.NewEncoder(w).Encode(e.ToResponse())
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
