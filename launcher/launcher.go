// Package launcher starts and supervises the backend process.
//
// Candidates are tried strictly in order, one at a time. Each attempt's
// stdout and stderr are relayed to the log and scanned for a readiness
// marker; a marker flips the readiness tracker to Ready and the exit of the
// process flips it back. When an attempt ends the next candidate is spawned,
// until one keeps running or the list is exhausted. Nothing here ever stops
// the edge server.
package launcher

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/edgeshim/component"
	"github.com/kbukum/edgeshim/logger"
	"github.com/kbukum/edgeshim/metrics"
	"github.com/kbukum/edgeshim/observability"
	"github.com/kbukum/edgeshim/process"
	"github.com/kbukum/edgeshim/readiness"
)

// Status is the launcher state.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusInstalling Status = "installing"
	StatusStarting   Status = "starting"
	StatusReady      Status = "ready"
	// StatusExited means the last candidate exited with code 0.
	StatusExited Status = "exited"
	// StatusExhausted means every candidate failed.
	StatusExhausted Status = "exhausted"
	StatusStopped   Status = "stopped"
)

// Outcome describes how an attempt ended.
type Outcome string

const (
	OutcomeRunning     Outcome = "running"
	OutcomeSpawnFailed Outcome = "spawn_failed"
	OutcomeFailed      Outcome = "failed"
	OutcomeExited      Outcome = "exited"
	OutcomeStopped     Outcome = "stopped"
)

// Attempt records one candidate attempt.
type Attempt struct {
	Index     int
	Candidate string
	Outcome   Outcome
	ExitCode  int
	Ready     bool
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}

var (
	_ component.Component   = (*Launcher)(nil)
	_ component.Describable = (*Launcher)(nil)
)

// Launcher runs the candidate list against a readiness tracker.
type Launcher struct {
	cfg            Config
	candidates     []Candidate
	runtimePresent bool
	tracker        *readiness.Tracker
	detect         readiness.Detector
	log            *logger.Logger
	backendLog     *logger.Logger
	metrics        *metrics.Collector

	mu       sync.Mutex
	status   Status
	cursor   int
	current  *process.Handle
	live     bool // current has not exited yet
	attempts []Attempt
	cancel   context.CancelFunc
	done     chan struct{}
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithLogger sets the logger. Backend output is logged under component
// "backend".
func WithLogger(l *logger.Logger) Option {
	return func(ln *Launcher) {
		ln.log = l.WithComponent("launcher")
		ln.backendLog = l.WithComponent("backend")
	}
}

// WithMetrics records attempts, installs and readiness on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(ln *Launcher) { ln.metrics = c }
}

// WithDetector replaces the marker-based readiness detector.
func WithDetector(d readiness.Detector) Option {
	return func(ln *Launcher) { ln.detect = d }
}

// WithRuntime marks the runtime environment as present, enabling the
// dependency install.
func WithRuntime(present bool) Option {
	return func(ln *Launcher) { ln.runtimePresent = present }
}

// New creates a Launcher for candidates. cfg must have defaults applied.
func New(cfg Config, candidates []Candidate, tracker *readiness.Tracker, opts ...Option) *Launcher {
	if tracker == nil {
		tracker = readiness.New(nil)
	}
	l := &Launcher{
		cfg:        cfg,
		candidates: candidates,
		tracker:    tracker,
		detect:     readiness.MarkerDetector(cfg.Markers...),
		log:        logger.Nop(),
		backendLog: logger.Nop(),
		status:     StatusIdle,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name implements component.Component.
func (l *Launcher) Name() string { return "launcher" }

// Start begins the attempt loop in the background and returns immediately.
// The loop outlives ctx's cancellation; only Stop ends it.
func (l *Launcher) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done != nil {
		return errors.New("launcher already started")
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	l.cancel = cancel
	l.done = make(chan struct{})

	l.log.Info("starting backend", logger.Fields("candidates", len(l.candidates)))
	go l.run(runCtx)
	return nil
}

// Stop terminates the current backend process and waits for the loop to end,
// or for ctx.
func (l *Launcher) Stop(ctx context.Context) error {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.mu.Unlock()
	if done == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the attempt loop has ended. Nil before Start.
func (l *Launcher) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// Status returns the current state.
func (l *Launcher) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Cursor returns the index of the current (or last) candidate.
func (l *Launcher) Cursor() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor
}

// Attempts returns a copy of the attempt records, oldest first.
func (l *Launcher) Attempts() []Attempt {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Attempt(nil), l.attempts...)
}

// State reports the status word and readiness for informational routes.
func (l *Launcher) State() (string, bool) {
	return string(l.Status()), l.tracker.IsReady()
}

// Health implements component.Component.
func (l *Launcher) Health(_ context.Context) component.Health {
	l.mu.Lock()
	status := l.status
	details := map[string]string{"attempts": strconv.Itoa(len(l.attempts))}
	if len(l.candidates) > 0 && len(l.attempts) > 0 {
		details["candidate"] = l.candidates[l.cursor].Name
	}
	if l.current != nil {
		details["pid"] = strconv.Itoa(l.current.Pid())
	}
	l.mu.Unlock()

	h := component.Health{Name: l.Name(), Message: string(status), Details: details}
	switch status {
	case StatusReady:
		h.Status = component.StatusHealthy
	case StatusIdle, StatusInstalling, StatusStarting:
		h.Status = component.StatusDegraded
	default:
		h.Status = component.StatusUnhealthy
	}
	return h
}

// Describe implements component.Describable.
func (l *Launcher) Describe() component.Description {
	return component.Description{
		Name:    "Backend Launcher",
		Type:    "process",
		Details: l.cfg.Address(),
		Port:    l.cfg.Port,
	}
}

func (l *Launcher) run(ctx context.Context) {
	defer close(l.done)

	if cmd, ok := l.installCommand(); ok {
		l.install(ctx, cmd)
	}

	if len(l.candidates) == 0 {
		l.log.Error("no backend candidates configured")
		l.setStatus(StatusExhausted)
		return
	}

	for i, c := range l.candidates {
		if ctx.Err() != nil {
			break
		}
		last := i == len(l.candidates)-1
		a := l.attempt(ctx, i, c)

		switch {
		case ctx.Err() != nil:
		case last && a.Outcome == OutcomeExited:
			l.log.Warn("last backend candidate exited", logger.Fields(logger.FieldCandidate, c.Name))
			l.setStatus(StatusExited)
			return
		case last:
			l.log.Error("all backend candidates failed; API requests will not reach a backend", logger.Fields(
				"attempts", len(l.candidates),
			))
			l.setStatus(StatusExhausted)
			return
		default:
			l.log.Warn("backend candidate ended, trying next", logger.Fields(
				logger.FieldCandidate, c.Name,
				"next", l.candidates[i+1].Name,
			))
		}
	}
	l.setStatus(StatusStopped)
	l.log.Info("backend stopped")
}

// attempt spawns candidate i and blocks until it exits.
func (l *Launcher) attempt(ctx context.Context, i int, c Candidate) Attempt {
	ctx, span := observability.StartSpan(ctx, "launcher.attempt")
	span.SetAttributes(attribute.String(observability.AttrCandidate, c.Name))
	defer span.End()

	cmd := c.Command(l.cfg)
	a := Attempt{Index: i, Candidate: c.Name, Outcome: OutcomeRunning, StartedAt: time.Now()}
	l.mu.Lock()
	l.cursor = i
	l.status = StatusStarting
	l.attempts = append(l.attempts, a)
	l.mu.Unlock()

	log := l.log.WithFields(logger.Fields(logger.FieldCandidate, c.Name))
	log.Info("spawning backend", logger.Fields("command", cmd.String(), "attempt", i+1))

	h, err := process.Start(ctx, cmd, l.onLine)
	if err != nil {
		a.Outcome = OutcomeSpawnFailed
		a.ExitCode = -1
		a.Err = err
		log.Warn("backend spawn failed", logger.Fields(logger.FieldError, err.Error()))
		observability.SetSpanError(ctx, err)
		l.finish(a)
		return a
	}

	l.mu.Lock()
	l.current = h
	l.live = true
	l.mu.Unlock()
	log.Debug("backend spawned", logger.Fields(logger.FieldPID, h.Pid()))

	<-h.Exited()
	l.markExited()
	res, werr := h.Wait()
	a.ExitCode = res.ExitCode
	a.Duration = res.Duration
	a.Err = werr
	switch {
	case ctx.Err() != nil:
		a.Outcome = OutcomeStopped
	case werr == nil:
		a.Outcome = OutcomeExited
	default:
		a.Outcome = OutcomeFailed
		observability.SetSpanError(ctx, werr)
	}

	fields := logger.Fields(
		"exit_code", res.ExitCode,
		logger.FieldDuration, res.Duration.Milliseconds(),
		"outcome", string(a.Outcome),
	)
	if a.Outcome == OutcomeStopped {
		log.Info("backend exited", fields)
	} else {
		if tail := h.Tail(); len(tail) > 0 {
			fields["output_tail"] = tail[max(0, len(tail)-10):]
		}
		log.Warn("backend exited", fields)
	}

	l.mu.Lock()
	l.current = nil
	l.mu.Unlock()
	l.finish(a)
	return a
}

// markExited resets readiness as soon as the backend process is gone,
// before its remaining output is drained.
func (l *Launcher) markExited() {
	l.mu.Lock()
	l.live = false
	if l.status == StatusReady {
		l.status = StatusStarting
	}
	l.mu.Unlock()
	if l.tracker.MarkNotReady() {
		l.metrics.BackendReady(false)
	}
}

// finish records the attempt's end.
func (l *Launcher) finish(a Attempt) {
	l.markExited()
	l.mu.Lock()
	a.Ready = l.attempts[a.Index].Ready
	l.attempts[a.Index] = a
	l.mu.Unlock()
	l.metrics.LaunchAttempt(a.Candidate, string(a.Outcome))
}

func (l *Launcher) onLine(stream, line string) {
	l.backendLog.Info(line, logger.Fields(logger.FieldStream, stream))
	if !l.detect(line) {
		return
	}

	// A marker drained after the process exited must not revive readiness.
	l.mu.Lock()
	if !l.live || !l.tracker.MarkReady() {
		l.mu.Unlock()
		return
	}
	l.status = StatusReady
	var name string
	if n := len(l.attempts); n > 0 {
		l.attempts[n-1].Ready = true
		name = l.attempts[n-1].Candidate
	}
	l.mu.Unlock()

	l.metrics.BackendReady(true)
	l.log.Info("backend ready", logger.Fields(logger.FieldCandidate, name, "marker", line))
}

func (l *Launcher) setStatus(s Status) {
	l.mu.Lock()
	l.status = s
	l.mu.Unlock()
}
