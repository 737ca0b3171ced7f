package session

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory, in insertion order.
type MemoryStore struct {
	mu   sync.RWMutex
	rows []Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) FindByAccessToken(_ context.Context, token string) (*Session, error) {
	return m.first(func(s Session) bool { return s.AccessToken == token }), nil
}

func (m *MemoryStore) FindByRefreshToken(_ context.Context, token string) (*Session, error) {
	return m.first(func(s Session) bool { return s.RefreshToken == token }), nil
}

func (m *MemoryStore) first(match func(Session) bool) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.rows {
		if match(s) {
			out := s
			return &out
		}
	}
	return nil
}

func (m *MemoryStore) Insert(_ context.Context, s Session) (Session, error) {
	id, err := NewID()
	if err != nil {
		return Session{}, err
	}
	s.ID = id

	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows = append(m.rows, s)
	return s, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, f Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].apply(f)
			return nil
		}
	}
	return ErrSessionNotFound
}

func (m *MemoryStore) DeleteWhere(_ context.Context, f Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.rows[:0]
	var n int64
	for _, s := range m.rows {
		if f.Matches(s) {
			n++
			continue
		}
		kept = append(kept, s)
	}
	clear(m.rows[len(kept):])
	m.rows = kept
	return n, nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}
