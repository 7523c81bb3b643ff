// Package edge assembles the serve path: the edge HTTP server with its
// routes and middleware, the reverse proxy, and the backend launcher, all
// under one bootstrap lifecycle.
//
// Startup binds the port first and launches the backend afterwards, so
// health probes succeed while the backend is still coming up. Shutdown
// drains the server before the backend is terminated, so proxied requests
// already in flight complete.
package edge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/edgeshim/bootstrap"
	"github.com/kbukum/edgeshim/component"
	"github.com/kbukum/edgeshim/launcher"
	"github.com/kbukum/edgeshim/logger"
	"github.com/kbukum/edgeshim/metrics"
	"github.com/kbukum/edgeshim/observability"
	"github.com/kbukum/edgeshim/proxy"
	"github.com/kbukum/edgeshim/readiness"
	"github.com/kbukum/edgeshim/server"
	"github.com/kbukum/edgeshim/server/endpoint"
	"github.com/kbukum/edgeshim/server/middleware"
)

// Edge is an assembled edgeshim service.
type Edge struct {
	App      *bootstrap.App[*Config]
	Server   *server.Server
	Proxy    *proxy.Proxy
	Launcher *launcher.Launcher
	Tracker  *readiness.Tracker
	Metrics  *metrics.Collector

	tracer *sdktrace.TracerProvider
}

// Build validates cfg and wires every part. Nothing is started.
func Build(ctx context.Context, cfg *Config, opts ...bootstrap.Option) (*Edge, error) {
	cfg.ApplyDefaults()
	graceful := cfg.Server.ShutdownTimeout + cfg.Backend.GracePeriod + 5*time.Second
	opts = append([]bootstrap.Option{bootstrap.WithGracefulTimeout(graceful)}, opts...)

	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}
	cfg = app.Cfg
	log := app.Logger

	e := &Edge{App: app, Tracker: readiness.New(nil)}
	if !cfg.Metrics.Disabled {
		e.Metrics = metrics.New(cfg.Metrics.Namespace)
	}

	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, cfg.Tracing, cfg.Name, cfg.Version, cfg.Environment)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		e.tracer = tp
	}

	runtime := launcher.DetectRuntime(cfg.Backend.RuntimeDir)
	candidates := launcher.BuildCandidates(cfg.Backend, runtime)
	e.Launcher = launcher.New(cfg.Backend, candidates, e.Tracker,
		launcher.WithLogger(log),
		launcher.WithMetrics(e.Metrics),
		launcher.WithRuntime(runtime),
	)

	target := &url.URL{Scheme: "http", Host: cfg.Backend.Address()}
	e.Proxy = proxy.New(cfg.Proxy, target, e.Tracker,
		proxy.WithLogger(log),
		proxy.WithMetrics(e.Metrics),
	)

	e.Server = server.New(cfg.Server, log)
	e.Server.Use(
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.Metrics(e.Metrics, e.routeLabel),
		middleware.RequestLogger(log.WithComponent("http")),
		middleware.Recovery(log),
	)
	e.registerRoutes()

	if err := app.RegisterComponent(server.NewComponent(e.Server)); err != nil {
		return nil, err
	}

	app.OnStart(func(ctx context.Context) error {
		log.Info("launching backend", logger.Fields(
			"runtime", runtime,
			"target", target.String(),
			"candidates", len(candidates),
		))
		return e.Launcher.Start(ctx)
	})
	app.OnReady(func(context.Context) error {
		log.Info("edge ready", logger.Fields("addr", e.Server.Addr(), "proxy_prefix", e.Proxy.Prefix()))
		return nil
	})
	app.OnStopped(func(ctx context.Context) error {
		return e.Launcher.Stop(ctx)
	})
	if e.tracer != nil {
		app.OnStopped(func(ctx context.Context) error {
			return e.tracer.Shutdown(ctx)
		})
	}
	return e, nil
}

// Run blocks until ctx is done or a shutdown signal arrives.
func (e *Edge) Run(ctx context.Context) error {
	return e.App.Run(ctx)
}

// Run builds and runs edgeshim with cfg.
func Run(ctx context.Context, cfg *Config, opts ...bootstrap.Option) error {
	e, err := Build(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	return e.Run(ctx)
}

func (e *Edge) registerRoutes() {
	cfg := e.App.Cfg
	r := e.Server.GinEngine()

	for _, p := range endpoint.HealthPaths {
		r.GET(p, endpoint.Health())
	}
	r.GET("/", endpoint.Info(endpoint.InfoConfig{
		Name:       cfg.Name,
		Version:    cfg.Version,
		APIPrefix:  cfg.Proxy.Prefix,
		HealthPath: endpoint.HealthPaths[0],
	}, e.Launcher.State))
	r.GET("/ready", endpoint.Ready(e.Tracker))
	r.GET("/status", endpoint.Status(cfg.Name, e.componentHealth))

	if e.Metrics != nil {
		e.Server.Handle(cfg.Metrics.Path, e.Metrics.Handler())
	}
	e.Proxy.Mount(e.Server)
}

func (e *Edge) componentHealth(ctx context.Context) []component.Health {
	return append(e.App.Components.HealthAll(ctx), e.Launcher.Health(ctx))
}

// routeLabel keeps the metrics route dimension bounded.
func (e *Edge) routeLabel(r *http.Request) string {
	p := r.URL.Path
	switch {
	case e.Proxy.Matches(p):
		return e.Proxy.Prefix() + "/*"
	case p == "/" || p == "/ready" || p == "/status" || p == e.App.Cfg.Metrics.Path:
		return p
	}
	for _, h := range endpoint.HealthPaths {
		if p == h {
			return p
		}
	}
	return "other"
}

// Addr returns the bound edge address.
func (e *Edge) Addr() string { return e.Server.Addr() }
