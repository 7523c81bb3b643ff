package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kbukum/edgeshim/process"
)

// Candidate is one way of starting the backend.
type Candidate struct {
	Name        string
	Binary      string
	Args        []string
	Env         []string
	PathPrepend string
}

// Command builds the process command for c under cfg.
func (c Candidate) Command(cfg Config) process.Command {
	return process.Command{
		Binary:      c.Binary,
		Args:        c.Args,
		Dir:         cfg.WorkDir,
		Env:         c.Env,
		PathPrepend: c.PathPrepend,
		GracePeriod: cfg.GracePeriod,
	}
}

func (c Candidate) String() string {
	return c.Command(Config{}).String()
}

// DetectRuntime reports whether dir is a usable Python environment.
func DetectRuntime(dir string) bool {
	fi, err := os.Stat(filepath.Join(dir, "bin", "python"))
	return err == nil && !fi.IsDir()
}

// BuildCandidates returns the ordered launch candidates. Runtime variants
// come first when the runtime environment is present; configured candidates
// replace the list entirely.
func BuildCandidates(cfg Config, runtimePresent bool) []Candidate {
	if len(cfg.Candidates) > 0 {
		out := make([]Candidate, 0, len(cfg.Candidates))
		for i, cc := range cfg.Candidates {
			name := cc.Name
			if name == "" {
				name = fmt.Sprintf("custom-%d", i+1)
			}
			out = append(out, Candidate{Name: name, Binary: cc.Command, Args: cc.Args, Env: cc.Env})
		}
		return out
	}

	uvicornArgs := []string{cfg.App, "--host", cfg.BindHost, "--port", strconv.Itoa(cfg.Port)}
	moduleArgs := append([]string{"-m", "uvicorn"}, uvicornArgs...)
	script := scriptExists(cfg)
	env := []string{"PYTHONUNBUFFERED=1"}

	var out []Candidate
	if runtimePresent {
		bin := filepath.Join(cfg.RuntimeDir, "bin")
		renv := append([]string{"VIRTUAL_ENV=" + cfg.RuntimeDir}, env...)
		out = append(out,
			Candidate{Name: "runtime-uvicorn", Binary: filepath.Join(bin, "uvicorn"), Args: uvicornArgs, Env: renv, PathPrepend: bin},
			Candidate{Name: "runtime-python-module", Binary: filepath.Join(bin, "python"), Args: moduleArgs, Env: renv, PathPrepend: bin},
		)
		if script {
			out = append(out, Candidate{Name: "runtime-script", Binary: filepath.Join(bin, "python"), Args: []string{cfg.Script}, Env: renv, PathPrepend: bin})
		}
	}

	out = append(out,
		Candidate{Name: "python3-module", Binary: "python3", Args: moduleArgs, Env: env},
		Candidate{Name: "python-module", Binary: "python", Args: moduleArgs, Env: env},
		Candidate{Name: "uvicorn", Binary: "uvicorn", Args: uvicornArgs, Env: env},
	)
	if script {
		out = append(out, Candidate{Name: "python3-script", Binary: "python3", Args: []string{cfg.Script}, Env: env})
	}
	return out
}

func scriptExists(cfg Config) bool {
	if cfg.Script == "" {
		return false
	}
	fi, err := os.Stat(filepath.Join(cfg.WorkDir, cfg.Script))
	return err == nil && !fi.IsDir()
}
