package edge

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/edgeshim/bootstrap"
	"github.com/kbukum/edgeshim/launcher"
	"github.com/kbukum/edgeshim/logger"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func testConfig(t *testing.T, backendPort int, script string) *Config {
	t.Helper()
	t.Setenv(EnvPort, "")
	t.Setenv("HEALTH_CHECK_URL", "")
	cfg := &Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = freePort(t)
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Backend.RuntimeDir = filepath.Join(t.TempDir(), "no-venv")
	cfg.Backend.WorkDir = t.TempDir()
	cfg.Backend.Port = backendPort
	cfg.Backend.GracePeriod = time.Second
	cfg.Backend.Candidates = []launcher.CandidateConfig{
		{Name: "test-backend", Command: "sh", Args: []string{"-c", script}},
	}
	return cfg
}

type running struct {
	edge   *Edge
	base   string
	cancel context.CancelFunc
	errCh  chan error
}

func start(t *testing.T, cfg *Config) *running {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	e, err := Build(ctx, cfg, bootstrap.WithLogger(logger.Nop()), bootstrap.WithSummaryOutput(io.Discard))
	require.NoError(t, err)

	r := &running{edge: e, cancel: cancel, errCh: make(chan error, 1)}
	go func() { r.errCh <- e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-r.errCh:
		case <-time.After(15 * time.Second):
			t.Error("edge did not shut down")
		}
	})

	r.base = "http://" + cfg.Server.Address()
	require.Eventually(t, func() bool {
		resp, err := http.Get(r.base + "/_health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 10*time.Second, 10*time.Millisecond)
	return r
}

func getJSON(t *testing.T, u string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestEdge_ServesHealthBeforeBackendIsReady(t *testing.T) {
	r := start(t, testConfig(t, freePort(t), "exec sleep 30"))

	for _, p := range []string{"/_health", "/healthz", "/health"} {
		code, body := getJSON(t, r.base+p)
		assert.Equal(t, http.StatusOK, code, p)
		assert.Equal(t, "ok", body["status"], p)
	}
	assert.False(t, r.edge.Tracker.IsReady())

	code, body := getJSON(t, r.base+"/api/anything")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "initializing", body["status"])

	code, body = getJSON(t, r.base+"/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, "/api", body["api"])
	assert.Equal(t, map[string]any{"state": "starting", "ready": false}, body["backend"])

	code, _ = getJSON(t, r.base+"/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, body = getJSON(t, r.base+"/nope")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", body["error"])
}

func TestEdge_StatusReportsExhaustedLauncher(t *testing.T) {
	r := start(t, testConfig(t, freePort(t), "exit 1"))
	require.Eventually(t, func() bool {
		return r.edge.Launcher.Status() == launcher.StatusExhausted
	}, 10*time.Second, 10*time.Millisecond)

	resp, err := http.Get(r.base + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Status     string `json:"status"`
		Service    string `json:"service"`
		Components []struct {
			Name    string            `json:"name"`
			Status  string            `json:"status"`
			Message string            `json:"message"`
			Details map[string]string `json:"details"`
		} `json:"components"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, ServiceName, body.Service)

	byName := map[string]int{}
	for i, c := range body.Components {
		byName[c.Name] = i
	}
	require.Contains(t, byName, "http-server")
	assert.Equal(t, "healthy", body.Components[byName["http-server"]].Status)
	require.Contains(t, byName, "launcher")
	ln := body.Components[byName["launcher"]]
	assert.Equal(t, "unhealthy", ln.Status)
	assert.Equal(t, "exhausted", ln.Message)
	assert.Equal(t, map[string]string{"attempts": "1", "candidate": "test-backend"}, ln.Details)

	code, body2 := getJSON(t, r.base+"/api/x")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "initializing", body2["status"])
}

func TestEdge_ProxiesOnceReady(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.URL.Path+"?"+r.URL.RawQuery)
	}))
	u, _ := url.Parse(backend.URL)
	port, _ := strconv.Atoi(u.Port())

	r := start(t, testConfig(t, port, "echo 'INFO:     Application startup complete.'; exec sleep 30"))
	require.Eventually(t, r.edge.Tracker.IsReady, 10*time.Second, 10*time.Millisecond)

	resp, err := http.Get(r.base + "/api/hello?x=1")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/hello?x=1", string(b))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	code, _ := getJSON(t, r.base+"/ready")
	assert.Equal(t, http.StatusOK, code)

	backend.Close()
	code, body := getJSON(t, r.base+"/api/hello")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "error", body["status"])

	resp, err = http.Get(r.base + "/metrics")
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(b), `edgeshim_http_requests_total{code="200",method="GET",route="/api/*"} 1`)
	assert.Contains(t, string(b), "edgeshim_backend_ready 1")
}

func TestEdge_GracefulShutdownCompletesInFlight(t *testing.T) {
	entered := make(chan struct{})
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		time.Sleep(500 * time.Millisecond)
		_, _ = io.WriteString(w, "finished")
	}))
	defer backend.Close()
	u, _ := url.Parse(backend.URL)
	port, _ := strconv.Atoi(u.Port())

	r := start(t, testConfig(t, port, "echo 'Server running'; exec sleep 30"))
	require.Eventually(t, r.edge.Tracker.IsReady, 10*time.Second, 10*time.Millisecond)

	type result struct {
		code int
		body string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := http.Get(r.base + "/api/slow")
		if err != nil {
			done <- result{err: err}
			return
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		done <- result{code: resp.StatusCode, body: string(b), err: err}
	}()

	<-entered
	r.cancel()

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "finished", res.body)

	select {
	case err := <-r.errCh:
		assert.NoError(t, err)
		r.errCh <- err
	case <-time.After(15 * time.Second):
		t.Fatal("run did not return")
	}
	assert.Equal(t, launcher.StatusStopped, r.edge.Launcher.Status())
	assert.False(t, r.edge.Tracker.IsReady())
}

func TestEdge_RunFailsWhenPortTaken(t *testing.T) {
	cfg := testConfig(t, freePort(t), "exec sleep 30")
	ln, err := net.Listen("tcp", cfg.Server.Address())
	require.NoError(t, err)
	defer ln.Close()

	err = Run(context.Background(), cfg, bootstrap.WithLogger(logger.Nop()), bootstrap.WithSummaryOutput(io.Discard))
	assert.Error(t, err)
}

func TestEdge_RouteLabel(t *testing.T) {
	e, err := Build(context.Background(), testConfig(t, 8000, "exit 0"),
		bootstrap.WithLogger(logger.Nop()), bootstrap.WithSummaryOutput(io.Discard))
	require.NoError(t, err)

	tests := map[string]string{
		"/api":          "/api/*",
		"/api/users/42": "/api/*",
		"/_health":      "/_health",
		"/":             "/",
		"/metrics":      "/metrics",
		"/wp-admin":     "other",
	}
	for path, want := range tests {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		assert.Equal(t, want, e.routeLabel(req), path)
	}
}

func TestConfig_Defaults(t *testing.T) {
	t.Setenv(EnvPort, "")
	t.Setenv("HEALTH_CHECK_URL", "")
	cfg := &Config{}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ServiceName, cfg.Name)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 8000, cfg.Backend.Port)
	assert.Equal(t, "/opt/venv", cfg.Backend.RuntimeDir)
	assert.Equal(t, "/api", cfg.Proxy.Prefix)
	assert.Equal(t, "http://localhost:8080/_health", cfg.Prober.Target())
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv(EnvPort, "3000")
	t.Setenv("HEALTH_CHECK_URL", "")
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.ApplyDefaults()

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "http://localhost:3000/_health", cfg.Prober.Target())
}

func TestConfig_ValidateRejectsPortClash(t *testing.T) {
	t.Setenv(EnvPort, "")
	cfg := &Config{}
	cfg.Server.Port = 8000
	cfg.ApplyDefaults()
	assert.Error(t, cfg.Validate())
}

func TestLoad_FromFile(t *testing.T) {
	t.Setenv(EnvPort, "")
	path := filepath.Join(t.TempDir(), "config.yml")
	yml := `
name: edge-test
environment: development
server:
  port: 9090
  shutdown_timeout: 3s
backend:
  port: 8100
  markers: ["READY"]
proxy:
  prefix: /v1
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "edge-test", cfg.Name)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 8100, cfg.Backend.Port)
	assert.Equal(t, []string{"READY"}, cfg.Backend.Markers)
	assert.Equal(t, "/v1", cfg.Proxy.Prefix)
}
