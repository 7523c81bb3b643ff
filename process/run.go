package process

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

const defaultGracePeriod = 5 * time.Second

// Run executes a subprocess and waits for it to complete.
// If the context is canceled, SIGTERM is sent first, then SIGKILL after GracePeriod.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	c, err := build(ctx, cmd)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err = c.Run()
	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: exitCode(c),
		Duration: time.Since(start),
	}
	if c.Process != nil {
		reapGroup(c.Process.Pid)
	}
	return result, waitError(ctx, result, err)
}

// build prepares an exec.Cmd that runs in its own process group so the
// whole tree can be signalled.
func build(ctx context.Context, cmd Command) (*exec.Cmd, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}
	grace := cmd.GracePeriod
	if grace == 0 {
		grace = defaultGracePeriod
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // dynamic args are the purpose of this package
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env, cmd.PathPrepend)
	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	}
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = grace
	return c, nil
}

func exitCode(c *exec.Cmd) int {
	if c.ProcessState == nil {
		return -1
	}
	return c.ProcessState.ExitCode()
}

func waitError(ctx context.Context, result *Result, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("process: killed by context: %w", ctx.Err())
	}
	return fmt.Errorf("process: exit code %d: %w", result.ExitCode, err)
}

// reapGroup SIGKILLs whatever is left of the process group after the
// leader exited. ESRCH (group already gone) is the common case.
func reapGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

// mergeEnv merges additional env vars and a PATH prefix with the current
// environment. nil means inherit the parent env unchanged.
func mergeEnv(extra []string, pathPrepend string) []string {
	if len(extra) == 0 && pathPrepend == "" {
		return nil
	}
	env := append(os.Environ(), extra...)
	if pathPrepend == "" {
		return env
	}
	path := ""
	for _, kv := range env {
		if v, ok := strings.CutPrefix(kv, "PATH="); ok {
			path = v
		}
	}
	if path == "" {
		return append(env, "PATH="+pathPrepend)
	}
	return append(env, "PATH="+pathPrepend+string(os.PathListSeparator)+path)
}
