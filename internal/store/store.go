// Package store provides the session storage backend for SpecPipe.
//
// All conversation state is memory-resident by design: sessions are
// short-lived interactive dialogues and are lost on process restart. The
// Store interface keeps the backend injectable so a distributed store can
// replace the in-memory one without touching the orchestration engine.
package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/BTreeMap/SpecPipe/internal/models"
	"github.com/google/uuid"
)

// DefaultMaxIdleDuration is the inactivity threshold after which a session
// is eligible for the expiry sweep.
const DefaultMaxIdleDuration = 30 * time.Minute

// Store owns the mapping from session identifier to ConversationSession.
type Store interface {
	// Create allocates a new session in ACTIVE status.
	Create(specialist models.Specialist, initialRequirements string) (*models.ConversationSession, error)

	// Get returns a read-only snapshot of the session, or ErrNotFound.
	Get(id string) (*models.ConversationSession, error)

	// Acquire returns the live session with its per-session lock held,
	// plus a release function. At most one advance/submit operates on a
	// session at a time; all mutation happens under this lock.
	Acquire(id string) (*models.ConversationSession, func(), error)

	// Delete removes the session. Idempotent: deleting an absent id is a
	// no-op, never an error.
	Delete(id string)

	// Sweep removes every session whose idle time exceeds maxIdle,
	// transitioning it to EXPIRED first. Sessions with an in-flight
	// operation are skipped even if nominally idle. Returns the number of
	// sessions removed.
	Sweep(now time.Time, maxIdle time.Duration) int

	// Len reports the number of live sessions.
	Len() int
}

// managedSession pairs a session with the mutex serializing its operations.
type managedSession struct {
	mu      sync.Mutex
	session *models.ConversationSession
}

// InMemoryStore is the default Store implementation.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*managedSession
	maxIdle  time.Duration
	now      func() time.Time
}

// Option configures an InMemoryStore.
type Option func(*InMemoryStore)

// WithMaxIdle overrides the idle threshold used by opportunistic expiry on Get.
func WithMaxIdle(d time.Duration) Option {
	return func(s *InMemoryStore) {
		if d > 0 {
			s.maxIdle = d
		}
	}
}

// WithClock overrides the time source. Used by tests to avoid wall-clock delays.
func WithClock(now func() time.Time) Option {
	return func(s *InMemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		sessions: make(map[string]*managedSession),
		maxIdle:  DefaultMaxIdleDuration,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	slog.Debug("store.NewInMemoryStore: created", "maxIdle", s.maxIdle)
	return s
}

// MaxIdle returns the configured idle threshold.
func (s *InMemoryStore) MaxIdle() time.Duration {
	return s.maxIdle
}

// Create allocates a new session in ACTIVE status.
func (s *InMemoryStore) Create(specialist models.Specialist, initialRequirements string) (*models.ConversationSession, error) {
	if !models.IsValidSpecialist(specialist) {
		slog.Warn("store.Create: invalid specialist", "specialist", specialist)
		return nil, models.ErrInvalidSpecialist
	}

	now := s.now()
	sess := &models.ConversationSession{
		ID:                  uuid.NewString(),
		Specialist:          specialist,
		InitialRequirements: initialRequirements,
		History:             []models.QAPair{},
		Status:              models.StatusActive,
		CreatedAt:           now,
		LastActivityAt:      now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &managedSession{session: sess}
	s.mu.Unlock()

	slog.Info("store.Create: session created", "sessionID", sess.ID, "specialist", specialist)
	return sess.Clone(), nil
}

// Get returns a snapshot of the session. Sessions past the idle threshold
// are expired opportunistically, so callers never observe a stale session
// between sweep cycles.
func (s *InMemoryStore) Get(id string) (*models.ConversationSession, error) {
	s.mu.RLock()
	ms, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, models.ErrNotFound
	}

	ms.mu.Lock()
	idle := s.now().Sub(ms.session.LastActivityAt)
	if idle > s.maxIdle {
		ms.session.Status = models.StatusExpired
		ms.mu.Unlock()
		s.Delete(id)
		slog.Info("store.Get: session expired opportunistically", "sessionID", id, "idle", idle)
		return nil, models.ErrNotFound
	}
	snapshot := ms.session.Clone()
	ms.mu.Unlock()

	return snapshot, nil
}

// Acquire returns the live session with its operation lock held.
func (s *InMemoryStore) Acquire(id string) (*models.ConversationSession, func(), error) {
	s.mu.RLock()
	ms, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, models.ErrNotFound
	}

	ms.mu.Lock()

	// The session may have been swept or deleted while we waited for its lock.
	s.mu.RLock()
	_, stillThere := s.sessions[id]
	s.mu.RUnlock()
	if !stillThere || ms.session.Status == models.StatusExpired {
		ms.mu.Unlock()
		return nil, nil, models.ErrNotFound
	}

	release := func() { ms.mu.Unlock() }
	return ms.session, release, nil
}

// Delete removes the session. Idempotent.
func (s *InMemoryStore) Delete(id string) {
	s.mu.Lock()
	_, existed := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	slog.Debug("store.Delete: session removed", "sessionID", id, "existed", existed)
}

// Sweep scans all sessions and removes those idle past maxIdle. A session
// whose operation lock is held is skipped: an in-flight advance/submit must
// never have its session removed out from under it. TryLock keeps the sweep
// non-blocking, so holding the store lock here cannot deadlock against an
// in-flight operation calling back into the store.
func (s *InMemoryStore) Sweep(now time.Time, maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, ms := range s.sessions {
		if !ms.mu.TryLock() {
			slog.Debug("store.Sweep: skipping in-flight session", "sessionID", id)
			continue
		}
		idle := now.Sub(ms.session.LastActivityAt)
		if idle > maxIdle {
			ms.session.Status = models.StatusExpired
			delete(s.sessions, id)
			removed++
			slog.Info("store.Sweep: session expired", "sessionID", id, "idle", idle)
		}
		ms.mu.Unlock()
	}

	if removed > 0 {
		slog.Info("store.Sweep: sweep complete", "removed", removed, "remaining", len(s.sessions))
	}
	return removed
}

// Len reports the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
