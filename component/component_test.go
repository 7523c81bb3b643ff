package component

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

type mockComponent struct {
	name       string
	startErr   error
	stopErr    error
	health     Health
	startOrder *[]string
	stopOrder  *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	if m.startOrder != nil {
		*m.startOrder = append(*m.startOrder, m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	if m.stopOrder != nil {
		*m.stopOrder = append(*m.stopOrder, m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) Health {
	return m.health
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(&mockComponent{name: "server"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockComponent{name: "server"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestStartStopOrder(t *testing.T) {
	var started, stopped []string
	r := NewRegistry(nil)
	for _, name := range []string{"server", "launcher"} {
		_ = r.Register(&mockComponent{name: name, startOrder: &started, stopOrder: &stopped})
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	if !slices.Equal(started, []string{"server", "launcher"}) {
		t.Errorf("unexpected start order %v", started)
	}
	if !slices.Equal(stopped, []string{"launcher", "server"}) {
		t.Errorf("unexpected stop order %v", stopped)
	}
}

func TestStartFailureOnlyStopsStarted(t *testing.T) {
	var started, stopped []string
	r := NewRegistry(nil)
	_ = r.Register(&mockComponent{name: "a", startOrder: &started, stopOrder: &stopped})
	_ = r.Register(&mockComponent{name: "b", startErr: errors.New("bind: address in use"), startOrder: &started, stopOrder: &stopped})
	_ = r.Register(&mockComponent{name: "c", startOrder: &started, stopOrder: &stopped})

	err := r.StartAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "start b") {
		t.Fatalf("expected start b error, got %v", err)
	}
	_ = r.StopAll(context.Background())
	if !slices.Equal(started, []string{"a", "b"}) {
		t.Errorf("c should never start, got %v", started)
	}
	if !slices.Equal(stopped, []string{"a"}) {
		t.Errorf("only a should be stopped, got %v", stopped)
	}
}

func TestStopAllCollectsErrors(t *testing.T) {
	r := NewRegistry(nil)
	_ = r.Register(&mockComponent{name: "a", stopErr: errors.New("a failed")})
	_ = r.Register(&mockComponent{name: "b", stopErr: errors.New("b failed")})
	_ = r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "a failed") || !strings.Contains(err.Error(), "b failed") {
		t.Errorf("expected both errors, got %v", err)
	}
}

func TestHealthAllAndLookup(t *testing.T) {
	r := NewRegistry(nil)
	_ = r.Register(&mockComponent{name: "server", health: Health{Name: "server", Status: StatusHealthy}})
	_ = r.Register(&mockComponent{name: "launcher", health: Health{Name: "launcher", Status: StatusDegraded, Message: "starting"}})

	hs := r.HealthAll(context.Background())
	if len(hs) != 2 || hs[1].Status != StatusDegraded {
		t.Errorf("unexpected health %+v", hs)
	}
	if r.Get("launcher") == nil || r.Get("missing") != nil {
		t.Error("Get returned unexpected result")
	}
	if len(r.All()) != 2 {
		t.Errorf("expected 2 components, got %d", len(r.All()))
	}
}
