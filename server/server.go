package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/edgeshim/component"
	apperrors "github.com/kbukum/edgeshim/errors"
	"github.com/kbukum/edgeshim/logger"
	"github.com/kbukum/edgeshim/server/middleware"
)

// Server is the edge HTTP server.
type Server struct {
	config Config
	log    *logger.Logger

	engine      *gin.Engine
	mux         *http.ServeMux
	middlewares []middleware.Middleware
	mounts      []component.Route

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	serveErr   chan error
}

// New creates a Server. Gin's mode follows the global log level.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.NoRoute(func(c *gin.Context) {
		RespondWithError(c, apperrors.NotFound(c.Request.URL.Path))
	})

	mux := http.NewServeMux()
	mux.Handle("/", engine)

	return &Server{
		config: cfg,
		log:    log.WithComponent("server"),
		engine: engine,
		mux:    mux,
	}
}

// GinEngine returns the Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handle mounts an http.Handler on the root mux, ahead of Gin.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.mounts = append(s.mounts, component.Route{
		Method:  "ANY",
		Path:    pattern,
		Handler: strings.TrimPrefix(fmt.Sprintf("%T", handler), "*"),
	})
	s.log.Debug("handler mounted", logger.Fields("pattern", pattern))
}

// Use appends server-wide middleware. The first registered is outermost.
// Must be called before Start.
func (s *Server) Use(mws ...middleware.Middleware) {
	s.middlewares = append(s.middlewares, mws...)
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	h := middleware.Chain(s.middlewares...)(s.mux)
	return h2c.NewHandler(h, &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          s.config.IdleTimeout,
	})
}

// Start binds the port and begins serving. It returns once the listener is
// bound; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return fmt.Errorf("server already started")
	}

	addr := s.config.Address()
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}
	s.listener = ln
	s.serveErr = make(chan error, 1)

	go func(srv *http.Server, errCh chan<- error) {
		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve failed", logger.Fields(logger.FieldError, err.Error()))
			errCh <- err
		}
		close(errCh)
	}(s.httpServer, s.serveErr)

	s.log.Info("listening", logger.Fields("addr", ln.Addr().String()))
	return nil
}

// Stop stops accepting connections and waits for in-flight requests, for
// at most ShutdownTimeout (or until ctx ends). Connections still open when
// the deadline passes are closed.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.log.Info("draining connections", logger.Fields("timeout", s.config.ShutdownTimeout.String()))
	start := time.Now()

	shutdownCtx := ctx
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.Info("server stopped", logger.DurationFields("shutdown", time.Since(start)))
	return nil
}

// Addr returns the bound listen address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Address()
}

// Port returns the bound port, or the configured one before Start.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
			return tcp.Port
		}
	}
	return s.config.Port
}

// Errors reports a Serve failure after a successful Start. It is closed when
// serving ends.
func (s *Server) Errors() <-chan error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serveErr
}
