package launcher

import (
	"fmt"
	"time"

	"github.com/kbukum/edgeshim/readiness"
	"github.com/kbukum/edgeshim/resilience"
)

// Config configures the backend launcher.
type Config struct {
	// RuntimeDir is the Python virtual environment probed by DetectRuntime.
	RuntimeDir string `yaml:"runtime_dir" mapstructure:"runtime_dir"`
	// WorkDir is the backend's working directory.
	WorkDir string `yaml:"work_dir" mapstructure:"work_dir"`
	// App is the ASGI application passed to uvicorn.
	App string `yaml:"app" mapstructure:"app"`
	// BindHost is the address the backend is told to listen on.
	BindHost string `yaml:"bind_host" mapstructure:"bind_host"`
	// Host is the address the edge dials to reach the backend.
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port" validate:"min=1,max=65535"`
	// Script is a start script tried when it exists in WorkDir.
	Script string `yaml:"script" mapstructure:"script"`
	// Markers are readiness markers looked for in backend output.
	Markers     []string      `yaml:"markers" mapstructure:"markers"`
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
	// Candidates replaces the built-in candidate list when set.
	Candidates []CandidateConfig `yaml:"candidates" mapstructure:"candidates" validate:"dive"`
	Install    InstallConfig     `yaml:"install" mapstructure:"install"`
}

// CandidateConfig is an explicitly configured launch command.
type CandidateConfig struct {
	Name    string   `yaml:"name" mapstructure:"name"`
	Command string   `yaml:"command" mapstructure:"command" validate:"required"`
	Args    []string `yaml:"args" mapstructure:"args"`
	Env     []string `yaml:"env" mapstructure:"env"`
}

// InstallConfig configures the one-time dependency install that runs when
// the runtime environment is present.
type InstallConfig struct {
	Skip         bool              `yaml:"skip" mapstructure:"skip"`
	Requirements string            `yaml:"requirements" mapstructure:"requirements"`
	Timeout      time.Duration     `yaml:"timeout" mapstructure:"timeout"`
	Retry        resilience.Policy `yaml:"retry" mapstructure:"retry"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.RuntimeDir == "" {
		c.RuntimeDir = "/opt/venv"
	}
	if c.WorkDir == "" {
		c.WorkDir = "."
	}
	if c.App == "" {
		c.App = "main:app"
	}
	if c.BindHost == "" {
		c.BindHost = "0.0.0.0"
	}
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.Script == "" {
		c.Script = "start_uvicorn.py"
	}
	if len(c.Markers) == 0 {
		c.Markers = append([]string(nil), readiness.DefaultMarkers...)
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = 10 * time.Second
	}
	if c.Install.Requirements == "" {
		c.Install.Requirements = "requirements.txt"
	}
	if c.Install.Timeout == 0 {
		c.Install.Timeout = 10 * time.Minute
	}
	if c.Install.Retry.Attempts == 0 {
		c.Install.Retry.Attempts = 2
	}
	if c.Install.Retry.Delay == 0 {
		c.Install.Retry.Delay = 5 * time.Second
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("backend.port must be between 1 and 65535 (got: %d)", c.Port)
	}
	if c.GracePeriod < 0 {
		return fmt.Errorf("backend.grace_period must be non-negative (got: %s)", c.GracePeriod)
	}
	for i, cc := range c.Candidates {
		if cc.Command == "" {
			return fmt.Errorf("backend.candidates[%d].command is required", i)
		}
	}
	return nil
}

// Address returns the host:port the edge dials.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
