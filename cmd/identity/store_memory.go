package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Jager4561/car-case-auth/cmd/identity/ids"
)

// MemoryStore is an in-process principal store for local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]Principal
	byEmail map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]Principal),
		byEmail: make(map[string]string),
	}
}

// Add stores p, assigning a ULID when p.ID is empty, and returns the stored copy.
func (s *MemoryStore) Add(p Principal) (Principal, error) {
	const op = "identity.MemoryStore.Add"

	if strings.TrimSpace(p.Email) == "" || p.PasswordHash == "" {
		return Principal{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "email and password hash required"}
	}
	if p.ID == "" {
		id, err := ids.NewULID(time.Now().UTC())
		if err != nil {
			return Principal{}, err
		}
		p.ID = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[p.ID]; ok {
		return Principal{}, ConflictError{Op: op, Field: "id"}
	}
	if _, ok := s.byEmail[p.Email]; ok {
		return Principal{}, ConflictError{Op: op, Field: "email"}
	}
	s.byID[p.ID] = p
	s.byEmail[p.Email] = p.ID
	return p, nil
}

// Remove deletes the principal with id, if any.
func (s *MemoryStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.byID[id]; ok {
		delete(s.byEmail, p.Email)
		delete(s.byID, id)
	}
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, nil
	}
	p := s.byID[id]
	return &p, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}
