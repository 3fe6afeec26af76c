package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	state map[string]Session
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore returns an empty store. Sessions untouched for longer than
// ttl are treated as idle; a ttl of zero keeps them forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		state: make(map[string]Session),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, userID string) (Session, error) {
	m.mu.RLock()
	s, ok := m.state[userID]
	m.mu.RUnlock()
	if !ok {
		return Session{UserID: userID, State: Idle}, nil
	}
	if m.expired(s) {
		m.mu.Lock()
		// a Save may have refreshed the entry since the read
		if cur, ok := m.state[userID]; ok && m.expired(cur) {
			delete(m.state, userID)
		}
		m.mu.Unlock()
		return Session{UserID: userID, State: Idle}, nil
	}
	return s, nil
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.State == Idle {
		delete(m.state, s.UserID)
		return nil
	}
	s.UpdatedAt = m.now()
	m.state[s.UserID] = s
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, userID)
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.state)
}

func (m *MemoryStore) expired(s Session) bool {
	return m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl
}
