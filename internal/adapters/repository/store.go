// Package repository holds per-session grid states and the current webcast
// catalog in memory.
package repository

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gameday-grid/gameday/internal/domain/grid"
	"github.com/gameday-grid/gameday/pkg/metrics"
)

// SessionStore provides read/write access to session grid states.
type SessionStore interface {
	// Create registers a new session. Returns ErrExists or ErrCapacity.
	Create(ctx context.Context, id string, s grid.State) error
	// Get returns the state of a session and marks it as used.
	// Returns ErrNotFound if the session is unknown.
	Get(ctx context.Context, id string) (grid.State, error)
	// Put replaces the state of an existing session.
	Put(ctx context.Context, id string, s grid.State) error
	// Delete removes a session.
	Delete(ctx context.Context, id string) error
	// Count returns the number of sessions.
	Count(ctx context.Context) int
	// IDs returns all session ids, sorted.
	IDs(ctx context.Context) []string
	// Idle returns the ids of sessions unused for longer than ttl.
	Idle(ctx context.Context, ttl time.Duration) []string
}

type entry struct {
	state   grid.State
	touched atomic.Int64 // unix nanos
}

// MemoryStore implements SessionStore with a map guarded by a RWMutex.
// States are stored as whole values; readers never see a partial update.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*entry
	maxSessions int
	now         func() time.Time
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create implements SessionStore.Create.
func (s *MemoryStore) Create(_ context.Context, id string, st grid.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; ok {
		metrics.RecordErrorByComponent("repository", "exists")
		return ErrExists
	}
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		metrics.RecordErrorByComponent("repository", "capacity")
		return ErrCapacity
	}
	e := &entry{state: st}
	e.touched.Store(s.now().UnixNano())
	s.sessions[id] = e
	metrics.UpdateSessionsActive(len(s.sessions))
	return nil
}

// Get implements SessionStore.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (grid.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return grid.State{}, ErrNotFound
	}
	e.touched.Store(s.now().UnixNano())
	return e.state, nil
}

// Put implements SessionStore.Put.
func (s *MemoryStore) Put(_ context.Context, id string, st grid.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	e.state = st
	e.touched.Store(s.now().UnixNano())
	return nil
}

// Delete implements SessionStore.Delete.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	metrics.UpdateSessionsActive(len(s.sessions))
	return nil
}

// Count implements SessionStore.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// IDs implements SessionStore.IDs.
func (s *MemoryStore) IDs(_ context.Context) []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Idle implements SessionStore.Idle. A non-positive ttl never expires.
func (s *MemoryStore) Idle(_ context.Context, ttl time.Duration) []string {
	if ttl <= 0 {
		return nil
	}
	cutoff := s.now().Add(-ttl).UnixNano()

	s.mu.RLock()
	var ids []string
	for id, e := range s.sessions {
		if e.touched.Load() < cutoff {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
