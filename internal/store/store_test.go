package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/BTreeMap/Pathfinder/internal/flow"
	"github.com/BTreeMap/Pathfinder/internal/testutil"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(gen *testutil.StubGenerator, opts ...Option) *SessionStore {
	return NewSessionStore(func() *flow.Controller { return flow.NewController(gen) }, opts...)
}

func TestSessionStore_CreateGetDelete(t *testing.T) {
	s := newTestStore(&testutil.StubGenerator{})

	a := s.Create()
	b := s.Create()
	if a.ID == b.ID {
		t.Fatal("expected unique session ids")
	}
	if a.Controller == b.Controller {
		t.Fatal("sessions must not share a controller")
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 sessions, got %d", s.Len())
	}

	got, err := s.Get(a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != a {
		t.Error("Get returned a different session")
	}

	s.Delete(a.ID)
	if _, err := s.Get(a.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestSessionStore_GetRejectsMalformedID(t *testing.T) {
	s := newTestStore(&testutil.StubGenerator{})
	for _, id := range []string{"", "not-a-uuid", "../etc/passwd"} {
		if _, err := s.Get(id); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Get(%q): expected ErrSessionNotFound, got %v", id, err)
		}
	}
}

func TestSessionStore_SweepEvictsIdleSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := newTestStore(&testutil.StubGenerator{}, WithTTL(10*time.Minute), WithClock(clock.Now))

	stale := s.Create()
	clock.Advance(8 * time.Minute)
	fresh := s.Create()
	clock.Advance(5 * time.Minute)

	if n := s.Sweep(clock.Now()); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, err := s.Get(stale.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Error("stale session should have been evicted")
	}
	if _, err := s.Get(fresh.ID); err != nil {
		t.Errorf("fresh session should survive: %v", err)
	}
}

func TestSessionStore_GetRefreshesLastSeen(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := newTestStore(&testutil.StubGenerator{}, WithTTL(10*time.Minute), WithClock(clock.Now))

	sess := s.Create()
	clock.Advance(9 * time.Minute)
	if _, err := s.Get(sess.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}
	clock.Advance(9 * time.Minute)
	if n := s.Sweep(clock.Now()); n != 0 {
		t.Errorf("recently used session was evicted")
	}
}

func TestSessionStore_SweepKeepsLoadingSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	gen := &testutil.StubGenerator{
		Response: testutil.RoadmapJSON("Slow", 1),
		Block:    make(chan struct{}),
		Started:  make(chan struct{}, 1),
	}
	s := newTestStore(gen, WithTTL(time.Minute), WithClock(clock.Now))

	sess := s.Create()
	if err := sess.Controller.SetForm(testutil.ValidForm()); err != nil {
		t.Fatalf("SetForm: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- sess.Controller.Submit(context.Background()) }()
	<-gen.Started

	clock.Advance(time.Hour)
	if n := s.Sweep(clock.Now()); n != 0 {
		t.Errorf("loading session must not be evicted, removed %d", n)
	}
	close(gen.Block)
	if err := <-done; err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if n := s.Sweep(clock.Now()); n != 1 {
		t.Errorf("expected idle session to be evicted after completion, removed %d", n)
	}
}

func TestSessionStore_ZeroTTLDisablesEviction(t *testing.T) {
	s := newTestStore(&testutil.StubGenerator{}, WithTTL(0))
	s.Create()
	if n := s.Sweep(time.Now().Add(1000 * time.Hour)); n != 0 {
		t.Errorf("expected no eviction with TTL 0, got %d", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	returned := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Run should return immediately when eviction is disabled")
	}
}

func TestSessionStore_RunStopsOnCancel(t *testing.T) {
	s := newTestStore(&testutil.StubGenerator{}, WithTTL(time.Millisecond), WithSweepInterval(time.Millisecond))
	s.Create()

	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(returned)
	}()

	deadline := time.After(2 * time.Second)
	for s.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("janitor did not evict the idle session")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
