// Package server provides the edge HTTP server: a Gin engine mounted as the
// fallback of a root http.ServeMux, so plain http.Handlers (the reverse
// proxy, the metrics handler) share the port with Gin routes. The whole mux
// is served over HTTP/1.1 and h2c, and server-wide net/http middleware wraps
// everything.
package server
