package process

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Stream names passed to LineFunc.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

const (
	defaultTailLines = 50
	maxLineBytes     = 64 * 1024
	drainTimeout     = time.Second
)

// LineFunc receives every output line of a started process. Calls are
// serialized per handle.
type LineFunc func(stream, line string)

// Handle is a running subprocess started with Start.
type Handle struct {
	cmd   *exec.Cmd
	pid   int
	start time.Time

	mu     sync.Mutex
	onLine LineFunc
	tail   []string

	exited chan struct{}
	done   chan struct{}
	result *Result
	err    error
}

// Start spawns cmd and streams its stdout and stderr line by line to
// onLine. It returns once the process is running; spawn failures
// (executable missing, permission denied) are returned directly.
// Canceling ctx terminates the process group.
//
// The leader's exit is observed independently of its output: descendants
// that keep the pipes open do not delay Exited. Once the leader is reaped
// the rest of its group is killed and the remaining output is drained for
// at most drainTimeout.
func Start(ctx context.Context, cmd Command, onLine LineFunc) (*Handle, error) {
	c, err := build(ctx, cmd)
	if err != nil {
		return nil, err
	}

	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("process: stdout pipe: %w", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		closeAll(outR, outW)
		return nil, fmt.Errorf("process: stderr pipe: %w", err)
	}
	c.Stdout = outW
	c.Stderr = errW

	h := &Handle{cmd: c, onLine: onLine, exited: make(chan struct{}), done: make(chan struct{})}
	h.start = time.Now()
	err = c.Start()
	// The child holds its own copies of the write ends.
	closeAll(outW, errW)
	if err != nil {
		closeAll(outR, errR)
		return nil, fmt.Errorf("process: start %s: %w", cmd.Binary, err)
	}
	h.pid = c.Process.Pid

	var readers sync.WaitGroup
	readers.Add(2)
	go h.read(&readers, StreamStdout, outR)
	go h.read(&readers, StreamStderr, errR)
	drained := make(chan struct{})
	go func() {
		readers.Wait()
		close(drained)
	}()

	go func() {
		werr := c.Wait()
		reapGroup(h.pid)

		res := &Result{ExitCode: exitCode(c), Duration: time.Since(h.start)}
		h.mu.Lock()
		h.result = res
		h.err = waitError(ctx, res, werr)
		h.mu.Unlock()
		close(h.exited)

		timer := time.NewTimer(drainTimeout)
		select {
		case <-drained:
		case <-timer.C:
		}
		timer.Stop()
		closeAll(outR, errR)
		<-drained
		close(h.done)
	}()
	return h, nil
}

// Pid returns the process id (also the process group id).
func (h *Handle) Pid() int { return h.pid }

// Exited is closed as soon as the process has exited, possibly before all
// of its output has been delivered.
func (h *Handle) Exited() <-chan struct{} { return h.exited }

// Done is closed once the process has exited and its output is drained.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the process exits and its output is drained. The error
// is nil only for exit 0.
func (h *Handle) Wait() (*Result, error) {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// Tail returns the most recent output lines, oldest first.
func (h *Handle) Tail() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.tail...)
}

func (h *Handle) read(wg *sync.WaitGroup, stream string, f *os.File) {
	defer wg.Done()
	w := &lineWriter{stream: stream, emit: h.emit}
	_, _ = io.Copy(w, f)
	w.flush()
}

func (h *Handle) emit(stream, line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tail = append(h.tail, line)
	if len(h.tail) > defaultTailLines {
		h.tail = h.tail[len(h.tail)-defaultTailLines:]
	}
	if h.onLine != nil {
		h.onLine(stream, line)
	}
}

// lineWriter splits written bytes into lines. Each reader goroutine owns
// one writer, so it needs no locking of its own.
type lineWriter struct {
	stream string
	emit   func(stream, line string)
	buf    []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.stream, string(bytes.TrimRight(w.buf[:i], "\r")))
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) >= maxLineBytes {
		w.emit(w.stream, string(w.buf))
		w.buf = w.buf[:0]
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	if len(w.buf) > 0 {
		w.emit(w.stream, string(w.buf))
		w.buf = nil
	}
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
