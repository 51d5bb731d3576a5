package storage

import (
	"context"
	"sync"

	"github.com/cataloguebot/whatsapp-gate/internal/gate"
)

// MemoryStore holds sessions in memory. Meant for tests and local runs.
type MemoryStore struct {
	sessions map[string]gate.Session
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]gate.Session),
	}
}

// Get returns the stored session or ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, identity string) (gate.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, exists := m.sessions[identity]
	if !exists {
		return gate.Session{}, ErrNotFound
	}
	return clone(s), nil
}

// GetOrCreate returns the stored session, creating a default one on first use.
func (m *MemoryStore) GetOrCreate(_ context.Context, identity string) (gate.Session, error) {
	m.mu.RLock()
	s, exists := m.sessions[identity]
	m.mu.RUnlock()
	if exists {
		return clone(s), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, exists := m.sessions[identity]; exists {
		return clone(s), nil
	}
	s = gate.NewSession(identity)
	m.sessions[identity] = s
	return s, nil
}

// Save replaces the stored session for s.Identity.
func (m *MemoryStore) Save(_ context.Context, s gate.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.Identity] = clone(s)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

// clone copies the timestamp pointers so callers never share them with the map.
func clone(s gate.Session) gate.Session {
	s.SearchEnabledAt = copyTime(s.SearchEnabledAt)
	s.MutedUntil = copyTime(s.MutedUntil)
	s.PausedAt = copyTime(s.PausedAt)
	s.ResumeSentAt = copyTime(s.ResumeSentAt)
	return s
}
