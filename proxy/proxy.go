// Package proxy forwards prefixed edge traffic to the backend.
//
// Failures to reach the backend are reported by readiness: while the backend
// is still starting callers get 503 with status "initializing" and a
// Retry-After header; once it has been seen ready a transport failure is a
// 500 with status "error" carrying the underlying error. Requests are never
// held back or retried here.
package proxy

import (
	"context"
	"errors"
	stdlog "log"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/kbukum/edgeshim/errors"
	"github.com/kbukum/edgeshim/logger"
	"github.com/kbukum/edgeshim/metrics"
	"github.com/kbukum/edgeshim/observability"
	"github.com/kbukum/edgeshim/readiness"
)

// Proxy is an http.Handler forwarding requests under Prefix to the backend.
type Proxy struct {
	cfg       Config
	target    *url.URL
	readiness readiness.Reader
	log       *logger.Logger
	metrics   *metrics.Collector
	rp        *httputil.ReverseProxy
}

// Option configures a Proxy.
type Option func(*Proxy)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Proxy) { p.log = l.WithComponent("proxy") }
}

// WithMetrics records proxy failures on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Proxy) { p.metrics = c }
}

// WithTransport replaces the backend transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Proxy) { p.rp.Transport = rt }
}

// New creates a Proxy to target. cfg must have defaults applied.
func New(cfg Config, target *url.URL, r readiness.Reader, opts ...Option) *Proxy {
	p := &Proxy{
		cfg:       cfg,
		target:    target,
		readiness: r,
		log:       logger.Nop(),
	}
	p.rp = &httputil.ReverseProxy{
		Rewrite:      p.rewrite,
		Transport:    newTransport(cfg),
		ErrorHandler: p.handleError,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.rp.ErrorLog = stdlog.New(p.log.GetLogger(), "", 0)
	return p
}

func newTransport(cfg Config) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = nil
	t.DialContext = (&net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	t.ResponseHeaderTimeout = cfg.ResponseHeaderTimeout
	t.IdleConnTimeout = cfg.IdleConnTimeout
	t.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	return t
}

// Prefix returns the mount prefix.
func (p *Proxy) Prefix() string { return p.cfg.Prefix }

// Mount registers the proxy for the prefix and everything below it.
func (p *Proxy) Mount(mux interface{ Handle(string, http.Handler) }) {
	mux.Handle(p.cfg.Prefix, p)
	mux.Handle(p.cfg.Prefix+"/", p)
}

// Matches reports whether path is served by the proxy.
func (p *Proxy) Matches(path string) bool {
	return path == p.cfg.Prefix || strings.HasPrefix(path, p.cfg.Prefix+"/")
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.rp.ServeHTTP(w, r)
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	stripPrefix(pr.Out.URL, p.cfg.Prefix)
	pr.SetURL(p.target)
	pr.SetXForwarded()
	observability.Inject(pr.In.Context(), pr.Out.Header)
}

// stripPrefix removes prefix from u's path: /api/x becomes /x, /api becomes /.
func stripPrefix(u *url.URL, prefix string) {
	u.Path = trimPath(u.Path, prefix)
	if u.RawPath != "" {
		u.RawPath = trimPath(u.RawPath, prefix)
	}
}

func trimPath(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return rest
}

func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := p.log.WithContext(r.Context())
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		log.Debug("client went away", logger.Fields("path", r.URL.Path))
		return
	}

	if p.readiness == nil || !p.readiness.IsReady() {
		p.metrics.ProxyError(apperrors.StatusInitializing)
		log.Debug("backend not ready", logger.Fields("path", r.URL.Path, logger.FieldError, err.Error()))
		w.Header().Set("Retry-After", strconv.Itoa(int(p.cfg.RetryAfter.Seconds())))
		apperrors.BackendInitializing().WriteJSON(w)
		return
	}

	p.metrics.ProxyError(apperrors.StatusError)
	observability.SetSpanError(r.Context(), err)
	log.Warn("backend request failed", logger.Fields("method", r.Method, "path", r.URL.Path, logger.FieldError, err.Error()))
	apperrors.BackendFailure(err).WriteJSON(w)
}
