package state

import (
	"context"
	"sync"
	"time"
)

const sweepEvery = 1000

type memoryManager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	ttl      time.Duration
	now      func() time.Time
	ops      int
}

// NewMemoryManager returns a process-local Manager. A ttl of zero keeps sessions forever.
func NewMemoryManager(ttl time.Duration) Manager {
	return newMemoryManager(ttl, time.Now)
}

func newMemoryManager(ttl time.Duration, now func() time.Time) *memoryManager {
	return &memoryManager{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		now:      now,
	}
}

func (m *memoryManager) expired(s *Session, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.UpdatedAt) >= m.ttl
}

// sweep drops idle sessions every sweepEvery operations. Callers hold mu.
func (m *memoryManager) sweep(now time.Time) {
	m.ops++
	if m.ops < sweepEvery {
		return
	}
	m.ops = 0
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
		}
	}
}

func (m *memoryManager) Get(_ context.Context, userID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)

	s, ok := m.sessions[userID]
	if !ok {
		return (*Session)(nil).Clone(), nil
	}
	if m.expired(s, now) {
		delete(m.sessions, userID)
		return (*Session)(nil).Clone(), nil
	}
	return s.Clone(), nil
}

func (m *memoryManager) Save(_ context.Context, userID int64, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)

	cp := s.Clone()
	cp.UpdatedAt = now
	m.sessions[userID] = cp
	return nil
}

func (m *memoryManager) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func (m *memoryManager) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
