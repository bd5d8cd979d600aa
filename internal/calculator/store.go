package calculator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-calculator/internal/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrStoreFull       = errors.New("session limit reached")
)

// Session is one calculator owned by a remote caller. All access to its
// engine goes through the session mutex.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	engine   *engine.Engine
	evals    []engine.Evaluation
	lastUsed time.Time
	now      func() time.Time
}

// Press applies b and returns the new display together with any
// evaluations the press triggered.
func (s *Session) Press(b engine.Button) (string, []engine.Evaluation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastUsed = s.now()
	s.evals = s.evals[:0]
	display := s.engine.Press(b)

	var evals []engine.Evaluation
	if len(s.evals) > 0 {
		evals = append(evals, s.evals...)
	}
	return display, evals
}

// Snapshot returns the current display and state.
func (s *Session) Snapshot() (string, engine.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastUsed = s.now()
	return s.engine.DisplayText(), s.engine.State()
}

// LastUsed reports when the session was last pressed or read.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastUsed
}

func (s *Session) idleSince(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.LastUsed()) >= ttl
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithEngineOptions builds every session's engine with opts.
func WithEngineOptions(opts ...engine.Option) StoreOption {
	return func(st *Store) {
		st.engineOpts = append(st.engineOpts, opts...)
	}
}

// WithIdleTTL expires sessions not used for ttl. Zero disables expiry.
func WithIdleTTL(ttl time.Duration) StoreOption {
	return func(st *Store) {
		st.ttl = ttl
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(st *Store) {
		st.now = now
	}
}

// Store keeps sessions in memory, keyed by UUID.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	maxSessions int
	ttl         time.Duration
	now         func() time.Time
	engineOpts  []engine.Option
}

// NewStore returns a store holding at most maxSessions sessions.
func NewStore(maxSessions int, opts ...StoreOption) *Store {
	st := &Store{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Create starts a new session in the initial state. Idle sessions are
// evicted first, so an expired session never holds a slot.
func (st *Store) Create() (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.evictLocked()

	if st.maxSessions > 0 && len(st.sessions) >= st.maxSessions {
		return nil, fmt.Errorf("%w: %d sessions", ErrStoreFull, len(st.sessions))
	}

	now := st.now()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		lastUsed:  now,
		now:       st.now,
	}
	opts := append([]engine.Option{}, st.engineOpts...)
	opts = append(opts, engine.WithEvaluationHook(func(ev engine.Evaluation) {
		s.evals = append(s.evals, ev)
	}))
	s.engine = engine.New(opts...)

	st.sessions[s.ID] = s
	return s, nil
}

// Get returns the session with the given id. An expired session is
// reported as not found.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.sessions[id]
	if !ok || s.idleSince(st.now(), st.ttl) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Delete removes a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(st.sessions, id)
	return nil
}

// Len reports the number of sessions held, including expired ones not yet
// swept.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return len(st.sessions)
}

// EvictExpired removes idle sessions and returns how many were removed.
func (st *Store) EvictExpired() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	return st.evictLocked()
}

func (st *Store) evictLocked() int {
	if st.ttl <= 0 {
		return 0
	}

	now := st.now()
	n := 0
	for id, s := range st.sessions {
		if s.idleSince(now, st.ttl) {
			delete(st.sessions, id)
			n++
		}
	}
	if n > 0 {
		recordEvictions(context.Background(), n)
	}
	return n
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
// It returns at once when expiry is disabled.
func (st *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if st.ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.EvictExpired()
		}
	}
}

// JanitorInterval is the sweep period used for a store with the given TTL.
func JanitorInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if interval := ttl / 4; interval >= time.Second {
		return interval
	}
	return time.Second
}
