package middleware

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/edgeshim/logger"
	"github.com/kbukum/edgeshim/observability"
)

// Tracing starts a server span per request, continuing any W3C trace context
// sent by the caller. With no tracer provider installed the spans are no-ops.
func Tracing() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := observability.Extract(r.Context(), r.Header)
			ctx, span := observability.StartSpan(ctx, fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String(observability.AttrHTTPMethod, r.Method),
					attribute.String(observability.AttrURLPath, r.URL.Path),
				),
			)
			defer span.End()
			if id := logger.RequestIDFromContext(ctx); id != "" {
				span.SetAttributes(attribute.String(observability.AttrRequestID, id))
			}

			sw := asStatusWriter(w)
			r = r.WithContext(ctx)
			next.ServeHTTP(sw, r)

			status := sw.code(r)
			span.SetAttributes(attribute.Int(observability.AttrHTTPStatus, status))
			if status >= 500 {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
		})
	}
}
