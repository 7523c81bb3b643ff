package edge

import (
	"fmt"
	"os"
	"strconv"

	"github.com/kbukum/edgeshim/config"
	"github.com/kbukum/edgeshim/launcher"
	"github.com/kbukum/edgeshim/observability"
	"github.com/kbukum/edgeshim/prober"
	"github.com/kbukum/edgeshim/proxy"
	"github.com/kbukum/edgeshim/server"
	"github.com/kbukum/edgeshim/validation"
	"github.com/kbukum/edgeshim/version"
)

// ServiceName is the default service name and config file stem.
const ServiceName = "edgeshim"

// EnvPort overrides server.port when set, following the platform convention.
const EnvPort = "PORT"

// Config is the edgeshim configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server  server.Config               `yaml:"server" mapstructure:"server"`
	Backend launcher.Config             `yaml:"backend" mapstructure:"backend"`
	Proxy   proxy.Config                `yaml:"proxy" mapstructure:"proxy"`
	Prober  prober.Config               `yaml:"prober" mapstructure:"prober"`
	Tracing observability.TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig               `yaml:"metrics" mapstructure:"metrics"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Disabled  bool   `yaml:"disabled" mapstructure:"disabled"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
	Path      string `yaml:"path" mapstructure:"path"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	if c.Version == "" {
		c.Version = version.Short()
	}
	c.ServiceConfig.ApplyDefaults()

	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	c.Server.ApplyDefaults()
	c.Backend.ApplyDefaults()
	c.Proxy.ApplyDefaults()
	c.Prober.ApplyDefaults(c.Server.Port)
	c.Tracing.ApplyDefaults()

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = ServiceName
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	for _, v := range []interface{ Validate() error }{&c.Server, &c.Backend, &c.Proxy, &c.Prober} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if c.Server.Port != 0 && c.Server.Port == c.Backend.Port && isLocal(c.Backend.Host) {
		return fmt.Errorf("server.port and backend.port must differ (both %d)", c.Server.Port)
	}
	return nil
}

func isLocal(host string) bool {
	switch host {
	case "127.0.0.1", "localhost", "::1", "0.0.0.0", "":
		return true
	}
	return false
}

// Load reads configuration from the standard locations, an optional
// explicit file and the environment.
func Load(configFile string) (*Config, error) {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	cfg := &Config{}
	if err := config.LoadConfig(ServiceName, cfg, opts...); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
