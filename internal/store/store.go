// Package store keeps the live roadmap sessions of a Pathfinder server in memory.
//
// Sessions are not persisted: a restart starts everyone over, which matches the page-reload
// reset of the browser rendition. Idle sessions are evicted by a janitor loop.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BTreeMap/Pathfinder/internal/flow"
)

// Default values for the session store
const (
	DefaultSessionTTL    = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Session pairs an id with the controller that owns its form and roadmap.
type Session struct {
	ID         string
	Controller *flow.Controller
	CreatedAt  time.Time
}

// ControllerFactory builds the controller for a new session.
type ControllerFactory func() *flow.Controller

// Opts holds configuration options for SessionStore.
type Opts struct {
	TTL           time.Duration // idle time after which a session is evicted; 0 disables eviction
	SweepInterval time.Duration
	Clock         func() time.Time
}

// Option defines a function that configures a SessionStore.
type Option func(*Opts)

// WithTTL sets the idle time after which sessions are evicted.
func WithTTL(ttl time.Duration) Option {
	return func(o *Opts) {
		o.TTL = ttl
	}
}

// WithSweepInterval sets how often Run evicts idle sessions.
func WithSweepInterval(interval time.Duration) Option {
	return func(o *Opts) {
		o.SweepInterval = interval
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Opts) {
		o.Clock = clock
	}
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// SessionStore is a concurrency-safe in-memory map of sessions.
type SessionStore struct {
	newController ControllerFactory
	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewSessionStore creates an empty store whose sessions are built by factory.
func NewSessionStore(factory ControllerFactory, opts ...Option) *SessionStore {
	cfg := Opts{
		TTL:           DefaultSessionTTL,
		SweepInterval: DefaultSweepInterval,
		Clock:         time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	slog.Debug("NewSessionStore", "ttl", cfg.TTL, "sweepInterval", cfg.SweepInterval)
	return &SessionStore{
		newController: factory,
		ttl:           cfg.TTL,
		sweepInterval: cfg.SweepInterval,
		now:           cfg.Clock,
		sessions:      make(map[string]*entry),
	}
}

// Create starts a fresh session with an idle controller.
func (s *SessionStore) Create() *Session {
	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		Controller: s.newController(),
		CreatedAt:  now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &entry{session: sess, lastSeen: now}
	count := len(s.sessions)
	s.mu.Unlock()

	slog.Debug("SessionStore.Create: session created", "session_id", sess.ID, "sessions", count)
	return sess
}

// Get returns the session and marks it as recently used.
func (s *SessionStore) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = s.now()
	return e.session, nil
}

// Delete removes the session if present.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many were removed.
// A session with a request in flight is never evicted.
func (s *SessionStore) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.sessions {
		if !e.lastSeen.Before(cutoff) {
			continue
		}
		if e.session.Controller.State() == flow.StateLoading {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	return removed
}

// Run evicts idle sessions every sweep interval. It blocks until the context is cancelled.
func (s *SessionStore) Run(ctx context.Context) {
	if s.ttl <= 0 {
		slog.Info("SessionStore.Run: session eviction disabled")
		return
	}
	slog.Info("SessionStore.Run: starting session janitor", "ttl", s.ttl, "sweepInterval", s.sweepInterval)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("SessionStore.Run: stopping")
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				slog.Info("SessionStore.Run: evicted idle sessions", "count", n, "remaining", s.Len())
			}
		}
	}
}
