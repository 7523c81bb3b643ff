package launcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kbukum/edgeshim/logger"
	"github.com/kbukum/edgeshim/process"
)

// installCommand returns the pip install command when the runtime is present
// and a requirements file exists.
func (l *Launcher) installCommand() (process.Command, bool) {
	if l.cfg.Install.Skip || !l.runtimePresent {
		return process.Command{}, false
	}
	req := l.cfg.Install.Requirements
	if !filepath.IsAbs(req) {
		req = filepath.Join(l.cfg.WorkDir, req)
	}
	if _, err := os.Stat(req); err != nil {
		return process.Command{}, false
	}
	bin := filepath.Join(l.cfg.RuntimeDir, "bin")
	return process.Command{
		Binary:      filepath.Join(bin, "pip"),
		Args:        []string{"install", "--no-input", "-r", req},
		Dir:         l.cfg.WorkDir,
		Env:         []string{"VIRTUAL_ENV=" + l.cfg.RuntimeDir, "PIP_DISABLE_PIP_VERSION_CHECK=1"},
		PathPrepend: bin,
		GracePeriod: l.cfg.GracePeriod,
	}, true
}

// install runs the dependency install. Failure is logged and ignored.
func (l *Launcher) install(ctx context.Context, cmd process.Command) {
	l.setStatus(StatusInstalling)
	log := l.log.WithFields(logger.Fields(logger.FieldOperation, "install"))
	log.Info("installing backend dependencies", logger.Fields("command", cmd.String()))

	policy := l.cfg.Install.Retry.Config()
	policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.Warn("install attempt failed, retrying", logger.Fields(
			"attempt", attempt,
			logger.FieldError, err.Error(),
			"backoff", backoff.String(),
		))
	}

	start := time.Now()
	res, err := process.RunWithRetry(ctx, cmd, l.cfg.Install.Timeout, policy)
	if err != nil {
		fields := logger.Fields(logger.FieldError, err.Error(), logger.FieldDuration, time.Since(start).Milliseconds())
		if res != nil && len(res.Stderr) > 0 {
			fields["stderr"] = lastLines(string(res.Stderr), 10)
		}
		log.Warn("dependency install failed, continuing", fields)
		l.metrics.InstallRun("failed")
		return
	}
	log.Info("dependencies installed", logger.DurationFields("install", time.Since(start)))
	l.metrics.InstallRun("succeeded")
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
