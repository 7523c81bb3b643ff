// Package observability wires OpenTelemetry tracing.
//
//	tp, err := observability.InitTracer(ctx, cfg, "edgeshim", version.Short(), "production")
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "launcher.attempt")
//	defer span.End()
//
// Trace context travels between processes in W3C traceparent headers; see
// Extract and Inject.
package observability
