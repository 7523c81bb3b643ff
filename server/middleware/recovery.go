package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "github.com/kbukum/edgeshim/errors"
	"github.com/kbukum/edgeshim/logger"
)

// Recovery recovers from handler panics, logs the stack and answers 500 when
// nothing has been written yet. http.ErrAbortHandler is re-raised so the
// server can abort the connection (the reverse proxy uses it mid-copy).
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := asStatusWriter(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.WithContext(r.Context()).Error("panic recovered", logger.Fields(
					logger.FieldError, fmt.Sprintf("%v", rec),
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
				))
				if !sw.wroteHeader {
					apperrors.Internal(fmt.Errorf("panic: %v", rec)).WriteJSON(sw)
				}
			}()
			next.ServeHTTP(sw, r)
		})
	}
}
