package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/edgeshim/edge"
	"github.com/kbukum/edgeshim/logger"
	"github.com/kbukum/edgeshim/prober"
)

var healthFlags struct {
	url     string
	path    string
	retries int
	timeout time.Duration
	delay   time.Duration
}

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Probe the edge health route and exit 0 (healthy) or 1",
	Long: `Probe the edge health route the way a container HEALTHCHECK does.

The base URL defaults to http://localhost:<server port>; HEALTH_CHECK_URL
overrides it. Each attempt has its own timeout; failed attempts are retried
after a fixed delay.

Example:
  edgeshim healthcheck
  HEALTH_CHECK_URL=http://localhost:8000 edgeshim healthcheck --retries 3`,
	RunE: runHealthcheck,
}

func init() {
	f := healthcheckCmd.Flags()
	f.StringVar(&healthFlags.url, "url", "", "base URL (overrides prober.url)")
	f.StringVar(&healthFlags.path, "path", "", "health path (default /_health)")
	f.IntVar(&healthFlags.retries, "retries", 0, "maximum attempts (default 5)")
	f.DurationVar(&healthFlags.timeout, "timeout", 0, "per-attempt timeout (default 5s)")
	f.DurationVar(&healthFlags.delay, "delay", 0, "delay between attempts (default 2s)")
}

func runHealthcheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(func(c *edge.Config) {
		if healthFlags.url != "" {
			c.Prober.URL = healthFlags.url
		}
		if healthFlags.path != "" {
			c.Prober.Path = healthFlags.path
		}
		if healthFlags.retries != 0 {
			c.Prober.MaxRetries = healthFlags.retries
		}
		if healthFlags.timeout != 0 {
			c.Prober.Timeout = healthFlags.timeout
		}
		if healthFlags.delay != 0 {
			c.Prober.Delay = healthFlags.delay
		}
	})
	if err != nil {
		return err
	}
	if err := cfg.Prober.Validate(); err != nil {
		return err
	}

	log := logger.NewFromEnv(cfg.Name)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := prober.New(cfg.Prober, prober.WithLogger(log))
	if err != nil {
		return err
	}
	code := p.Run(ctx)
	if code != prober.ExitHealthy {
		os.Exit(code)
	}
	return nil
}
