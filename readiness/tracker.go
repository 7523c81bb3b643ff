package readiness

import (
	"sync/atomic"
	"time"
)

// State is the backend readiness state.
type State int32

const (
	NotReady State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "not_ready"
}

// Reader is the read side of a Tracker.
type Reader interface {
	IsReady() bool
	State() State
}

// Tracker holds the readiness state. The zero value is NotReady and usable.
type Tracker struct {
	state    atomic.Int32
	changed  atomic.Int64 // unix nanos of the last transition
	onChange func(State)
}

// New returns a NotReady tracker. onChange, if non-nil, is called once per
// actual transition.
func New(onChange func(State)) *Tracker {
	return &Tracker{onChange: onChange}
}

// MarkReady sets the state to Ready. It reports whether this call changed
// the state, so repeated markers are cheap to detect.
func (t *Tracker) MarkReady() bool {
	return t.set(Ready)
}

// MarkNotReady sets the state to NotReady and reports whether it changed.
func (t *Tracker) MarkNotReady() bool {
	return t.set(NotReady)
}

func (t *Tracker) set(s State) bool {
	old := State(t.state.Swap(int32(s)))
	if old == s {
		return false
	}
	t.changed.Store(time.Now().UnixNano())
	if t.onChange != nil {
		t.onChange(s)
	}
	return true
}

// IsReady reports whether the backend is Ready.
func (t *Tracker) IsReady() bool {
	return t.State() == Ready
}

// State returns the current state.
func (t *Tracker) State() State {
	return State(t.state.Load())
}

// Since returns when the current state was entered; zero if never changed.
func (t *Tracker) Since() time.Time {
	n := t.changed.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
