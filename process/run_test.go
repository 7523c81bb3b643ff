package process_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/edgeshim/process"
	"github.com/kbukum/edgeshim/resilience"
)

func TestRunEcho(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "echo",
		Args:   []string{"hello", "world"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", result.ExitCode)
	}
	if out := strings.TrimSpace(string(result.Stdout)); out != "hello world" {
		t.Fatalf("expected 'hello world', got %q", out)
	}
}

func TestRunExitCode(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo oops >&2; exit 42"},
	})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if result.ExitCode != 42 {
		t.Fatalf("expected exit code 42, got %d", result.ExitCode)
	}
	if stderr := strings.TrimSpace(string(result.Stderr)); stderr != "oops" {
		t.Fatalf("expected 'oops' on stderr, got %q", stderr)
	}
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := process.Run(ctx, process.Command{
		Binary:      "sleep",
		Args:        []string{"10"},
		GracePeriod: 500 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected error from context cancellation")
	}
	if result.Duration > 5*time.Second {
		t.Fatalf("process took too long to kill: %v", result.Duration)
	}
}

func TestRunEmptyBinary(t *testing.T) {
	if _, err := process.Run(context.Background(), process.Command{}); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestRunEnvAndPathPrepend(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "greet")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho \"hi $MY_TEST_VAR\"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	result, err := process.Run(context.Background(), process.Command{
		Binary:      "sh",
		Args:        []string{"-c", "greet"},
		Env:         []string{"MY_TEST_VAR=there"},
		PathPrepend: dir,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out := strings.TrimSpace(string(result.Stdout)); out != "hi there" {
		t.Fatalf("expected 'hi there', got %q", out)
	}
}

func TestRunWithRetry(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "count")
	// Fails on the first run, succeeds once the marker file exists.
	cmd := process.Command{
		Binary: "sh",
		Args:   []string{"-c", "if [ -f " + marker + " ]; then exit 0; fi; touch " + marker + "; exit 1"},
	}
	res, err := process.RunWithRetry(context.Background(), cmd, time.Second, resilience.FixedDelay(3, 10*time.Millisecond))
	if err != nil {
		t.Fatalf("expected second attempt to succeed, got %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", res.ExitCode)
	}

	_, err = process.RunWithRetry(context.Background(), process.Command{Binary: "false"}, time.Second, resilience.FixedDelay(2, time.Millisecond))
	if err == nil {
		t.Fatal("expected failure after retries")
	}
}
