package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_LaunchAttempts(t *testing.T) {
	c := New("test")

	c.LaunchAttempt("python3-module", "spawn_error")
	c.LaunchAttempt("uvicorn", "exited")
	c.LaunchAttempt("uvicorn", "exited")

	expected := `
		# HELP test_backend_launch_attempts_total Backend launch attempts by candidate and outcome
		# TYPE test_backend_launch_attempts_total counter
		test_backend_launch_attempts_total{candidate="python3-module",outcome="spawn_error"} 1
		test_backend_launch_attempts_total{candidate="uvicorn",outcome="exited"} 2
	`
	err := testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "test_backend_launch_attempts_total")
	assert.NoError(t, err)
}

func TestCollector_BackendReadyGauge(t *testing.T) {
	c := New("test")

	c.BackendReady(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.backendReady))

	c.BackendReady(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.backendReady))
}

func TestCollector_ProxyErrorsAndInstall(t *testing.T) {
	c := New("test")

	c.ProxyError("initializing")
	c.ProxyError("initializing")
	c.ProxyError("error")
	c.InstallRun("failed")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.proxyErrors.WithLabelValues("initializing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.proxyErrors.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.installRuns.WithLabelValues("failed")))
}

func TestCollector_HTTPRequest(t *testing.T) {
	c := New("test")

	c.HTTPRequest("GET", "/_health", 200, 2*time.Millisecond)
	c.HTTPRequest("POST", "/api/*", 503, 5*time.Millisecond)

	count, err := testutil.GatherAndCount(c.Registry(), "test_http_requests_total", "test_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("POST", "/api/*", "503")))
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.LaunchAttempt("x", "y")
		c.InstallRun("ok")
		c.BackendReady(true)
		c.ProxyError("error")
		c.HTTPRequest("GET", "/", 200, time.Millisecond)
	})

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCollector_Handler(t *testing.T) {
	c := New("test")
	c.BackendReady(true)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "test_backend_ready 1")
	assert.Contains(t, string(body), "go_goroutines")
}
