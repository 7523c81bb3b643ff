package proxy

import (
	"fmt"
	"strings"
	"time"
)

// Config configures the reverse proxy.
type Config struct {
	// Prefix is the mount point; it is stripped before forwarding.
	Prefix                string        `yaml:"prefix" mapstructure:"prefix"`
	DialTimeout           time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout" mapstructure:"response_header_timeout"`
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout" mapstructure:"idle_conn_timeout"`
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host" mapstructure:"max_idle_conns_per_host" validate:"min=0"`
	// RetryAfter is advertised on 503 responses while the backend starts.
	RetryAfter time.Duration `yaml:"retry_after" mapstructure:"retry_after"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Prefix == "" {
		c.Prefix = "/api"
	}
	c.Prefix = "/" + strings.Trim(c.Prefix, "/")
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ResponseHeaderTimeout == 0 {
		c.ResponseHeaderTimeout = 5 * time.Minute
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = 90 * time.Second
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = 32
	}
	if c.RetryAfter == 0 {
		c.RetryAfter = 5 * time.Second
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Prefix == "/" || !strings.HasPrefix(c.Prefix, "/") {
		return fmt.Errorf("proxy.prefix must be a non-root path starting with / (got: %q)", c.Prefix)
	}
	if c.DialTimeout < 0 || c.ResponseHeaderTimeout < 0 || c.IdleConnTimeout < 0 || c.RetryAfter < 0 {
		return fmt.Errorf("proxy timeouts must be non-negative")
	}
	return nil
}
