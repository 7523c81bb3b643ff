// Package metrics exposes the service's Prometheus collectors.
//
// All recording methods are safe on a nil *Collector, so components accept
// an optional collector without guarding each call.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry and the edge metrics.
type Collector struct {
	registry *prometheus.Registry

	launchAttempts *prometheus.CounterVec
	installRuns    *prometheus.CounterVec
	backendReady   prometheus.Gauge
	proxyErrors    *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a Collector under namespace (default "edgeshim") with the Go
// runtime and process collectors registered alongside.
func New(namespace string) *Collector {
	if namespace == "" {
		namespace = "edgeshim"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.launchAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_launch_attempts_total",
			Help:      "Backend launch attempts by candidate and outcome",
		},
		[]string{"candidate", "outcome"},
	)
	c.installRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_install_runs_total",
			Help:      "Dependency install runs by outcome",
		},
		[]string{"outcome"},
	)
	c.backendReady = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_ready",
			Help:      "1 when the backend has signalled readiness, 0 otherwise",
		},
	)
	c.proxyErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_errors_total",
			Help:      "Proxied requests that failed to reach the backend, by reported status",
		},
		[]string{"status"},
	)
	c.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served by the edge server",
		},
		[]string{"method", "route", "code"},
	)
	c.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests served by the edge server",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	c.registry.MustRegister(
		c.launchAttempts,
		c.installRuns,
		c.backendReady,
		c.proxyErrors,
		c.httpRequests,
		c.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// LaunchAttempt counts one finished candidate attempt.
func (c *Collector) LaunchAttempt(candidate, outcome string) {
	if c == nil {
		return
	}
	c.launchAttempts.WithLabelValues(candidate, outcome).Inc()
}

// InstallRun counts one dependency install run.
func (c *Collector) InstallRun(outcome string) {
	if c == nil {
		return
	}
	c.installRuns.WithLabelValues(outcome).Inc()
}

// BackendReady sets the readiness gauge.
func (c *Collector) BackendReady(ready bool) {
	if c == nil {
		return
	}
	if ready {
		c.backendReady.Set(1)
	} else {
		c.backendReady.Set(0)
	}
}

// ProxyError counts a proxied request that failed at the transport level.
func (c *Collector) ProxyError(status string) {
	if c == nil {
		return
	}
	c.proxyErrors.WithLabelValues(status).Inc()
}

// HTTPRequest records one served request.
func (c *Collector) HTTPRequest(method, route string, code int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
