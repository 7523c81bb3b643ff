// Package errors provides the structured error type used for every error
// response the edge server writes. Each AppError carries a machine-readable
// code, the HTTP status to answer with and a status word ("initializing" or
// "error") that tells callers whether retrying makes sense.
package errors
