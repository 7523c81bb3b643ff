package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/edgeshim/logger"
)

var quietPaths = map[string]bool{
	"/_health": true,
	"/healthz": true,
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// RequestLogger logs every request with method, path, status and duration.
// Probe and scrape paths log at debug so orchestrator polling stays quiet at
// the default level.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := asStatusWriter(w)
			next.ServeHTTP(sw, r)

			status := sw.code(r)
			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				logger.FieldStatus, status,
				logger.FieldDuration, time.Since(start).Milliseconds(),
			)
			if id := logger.RequestIDFromContext(r.Context()); id != "" {
				fields[logger.FieldRequestID] = id
			}
			logByStatus(log, fields, status, quietPaths[r.URL.Path])
		})
	}
}

func logByStatus(log *logger.Logger, fields map[string]interface{}, status int, quiet bool) {
	switch {
	case status >= 500:
		log.Error("request completed", fields)
	case status == StatusClientClosedRequest:
		log.Info("client closed request", fields)
	case status >= 400:
		log.Warn("request completed", fields)
	case quiet:
		log.Debug("request completed", fields)
	default:
		log.Info("request completed", fields)
	}
}
