package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/edgeshim/metrics"
)

// RouteLabel maps a request to a bounded metric label.
type RouteLabel func(r *http.Request) string

// Metrics records request counts and latencies. label keeps the route
// dimension bounded; raw paths are never used as labels.
func Metrics(c *metrics.Collector, label RouteLabel) Middleware {
	return func(next http.Handler) http.Handler {
		if c == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := asStatusWriter(w)
			next.ServeHTTP(sw, r)
			c.HTTPRequest(r.Method, label(r), sw.code(r), time.Since(start))
		})
	}
}
