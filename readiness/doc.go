// Package readiness tracks whether the supervised backend is able to serve.
//
// The Tracker is written by the launcher (a readiness marker was seen, or
// the child exited) and read by the proxy's error path and the info routes.
// It never gates request forwarding.
package readiness
