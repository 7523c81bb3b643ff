package endpoint_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/edgeshim/component"
	"github.com/kbukum/edgeshim/readiness"
	"github.com/kbukum/edgeshim/server/endpoint"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, h gin.HandlerFunc, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	r := gin.New()
	r.GET(path, h)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v (%q)", err, rr.Body.String())
	}
	return rr, body
}

func TestHealth(t *testing.T) {
	for _, p := range endpoint.HealthPaths {
		rr, body := serve(t, endpoint.Health(), p)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", p, rr.Code)
		}
		if body["status"] != "ok" {
			t.Fatalf("%s: expected status ok, got %v", p, body["status"])
		}
		ts, _ := body["timestamp"].(string)
		if _, err := time.Parse(time.RFC3339, ts); err != nil {
			t.Fatalf("%s: timestamp %q is not RFC3339", p, ts)
		}
	}
}

func TestInfo(t *testing.T) {
	cfg := endpoint.InfoConfig{Name: "edge", Version: "1.2.3", APIPrefix: "/api", HealthPath: "/_health"}
	rr, body := serve(t, endpoint.Info(cfg, func() (string, bool) { return "starting", false }), "/")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body["name"] != "edge" || body["version"] != "1.2.3" || body["status"] != "running" {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["api"] != "/api" || body["health"] != "/_health" {
		t.Fatalf("unexpected links: %v", body)
	}
	backend, _ := body["backend"].(map[string]any)
	if backend["state"] != "starting" || backend["ready"] != false {
		t.Fatalf("unexpected backend: %v", backend)
	}
}

func TestReady(t *testing.T) {
	tr := readiness.New(nil)

	rr, body := serve(t, endpoint.Ready(tr), "/ready")
	if rr.Code != http.StatusServiceUnavailable || body["status"] != "initializing" {
		t.Fatalf("expected 503 initializing, got %d %v", rr.Code, body)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	tr.MarkReady()
	rr, body = serve(t, endpoint.Ready(tr), "/ready")
	if rr.Code != http.StatusOK || body["status"] != "ready" {
		t.Fatalf("expected 200 ready, got %d %v", rr.Code, body)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []component.HealthStatus
		want     string
		code     int
	}{
		{"all healthy", []component.HealthStatus{component.StatusHealthy, component.StatusHealthy}, "healthy", http.StatusOK},
		{"degraded", []component.HealthStatus{component.StatusHealthy, component.StatusDegraded}, "degraded", http.StatusOK},
		{"unhealthy wins", []component.HealthStatus{component.StatusUnhealthy, component.StatusDegraded}, "unhealthy", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := func(context.Context) []component.Health {
				out := make([]component.Health, len(tt.statuses))
				for i, s := range tt.statuses {
					out[i] = component.Health{Name: "c", Status: s}
				}
				return out
			}
			rr, body := serve(t, endpoint.Status("edge", checker), "/status")
			if rr.Code != tt.code || body["status"] != tt.want {
				t.Fatalf("expected %d %s, got %d %v", tt.code, tt.want, rr.Code, body["status"])
			}
		})
	}
}
