// Package prober checks the edge health route from the outside, the way a
// container HEALTHCHECK would. Probe retries a fixed number of times with a
// fixed delay; Run turns the outcome into a process exit code.
package prober

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/edgeshim/httpclient"
	"github.com/kbukum/edgeshim/logger"
	"github.com/kbukum/edgeshim/resilience"
)

// EnvURL overrides Config.URL when set.
const EnvURL = "HEALTH_CHECK_URL"

// Exit codes returned by Run.
const (
	ExitHealthy   = 0
	ExitUnhealthy = 1
)

// Config configures the prober.
type Config struct {
	// URL is the base URL of the edge server. Defaults to
	// http://localhost:<server port>.
	URL        string        `yaml:"url" mapstructure:"url"`
	Path       string        `yaml:"path" mapstructure:"path"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries" validate:"min=1"`
	Delay      time.Duration `yaml:"delay" mapstructure:"delay"`
}

// ApplyDefaults sets default values for unset fields. port is the edge
// server port used to build the default URL.
func (c *Config) ApplyDefaults(port int) {
	if v := os.Getenv(EnvURL); v != "" {
		c.URL = v
	}
	if c.URL == "" {
		c.URL = "http://localhost:" + strconv.Itoa(port)
	}
	if c.Path == "" {
		c.Path = "/_health"
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
	if c.Delay == 0 {
		c.Delay = 2 * time.Second
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("prober.url must be an http(s) URL (got: %q)", c.URL)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("prober.max_retries must be at least 1 (got: %d)", c.MaxRetries)
	}
	if c.Timeout < 0 || c.Delay < 0 {
		return fmt.Errorf("prober timeout and delay must be non-negative")
	}
	return nil
}

// Target returns the full URL probed.
func (c *Config) Target() string {
	return strings.TrimRight(c.URL, "/") + "/" + strings.TrimLeft(c.Path, "/")
}

// Prober probes the edge health route.
type Prober struct {
	cfg    Config
	client *httpclient.Client
	log    *logger.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Prober) { p.log = l.WithComponent("prober") }
}

// New creates a Prober. cfg must have defaults applied.
func New(cfg Config, opts ...Option) (*Prober, error) {
	client, err := httpclient.New(httpclient.Config{
		BaseURL: cfg.URL,
		Timeout: cfg.Timeout,
		Headers: map[string]string{"User-Agent": "edgeshim-healthcheck"},
	})
	if err != nil {
		return nil, fmt.Errorf("prober: %w", err)
	}
	p := &Prober{cfg: cfg, client: client, log: logger.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Prober) request(retry *resilience.RetryConfig) httpclient.Request {
	return httpclient.Request{
		Method:       http.MethodGet,
		Path:         p.cfg.Path,
		ExpectStatus: http.StatusOK,
		Retry:        retry,
	}
}

// Check performs a single attempt. It succeeds only on 200.
func (p *Prober) Check(ctx context.Context) error {
	_, err := p.client.Do(ctx, p.request(nil))
	return err
}

// Probe checks up to MaxRetries times, waiting Delay between attempts. Any
// failure is retried while ctx is alive.
func (p *Prober) Probe(ctx context.Context) error {
	attempts := 1
	policy := resilience.FixedDelay(p.cfg.MaxRetries, p.cfg.Delay)
	policy.RetryIf = func(error) bool { return ctx.Err() == nil }
	policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		attempts = attempt + 1
		p.log.Warn("health check attempt failed", logger.Fields(
			"attempt", attempt,
			logger.FieldError, err.Error(),
			"retry_in", backoff.String(),
		))
	}

	if _, err := p.client.Do(ctx, p.request(&policy)); err != nil {
		p.log.Error("health check failed", logger.Fields(
			"url", p.cfg.Target(),
			"attempts", attempts,
			logger.FieldError, err.Error(),
		))
		return err
	}
	p.log.Info("health check passed", logger.Fields("url", p.cfg.Target(), "attempt", attempts))
	return nil
}

// Run probes and returns the process exit code.
func (p *Prober) Run(ctx context.Context) int {
	if err := p.Probe(ctx); err != nil {
		return ExitUnhealthy
	}
	return ExitHealthy
}
