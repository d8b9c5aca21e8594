package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the session in process memory. Its scope is the lifetime of
// the process, like a browser tab's storage.
type MemoryStore struct {
	mu      sync.RWMutex
	current *Session
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	if err := checkSave(s); err != nil {
		return err
	}
	if s.SavedAt.IsZero() {
		s.SavedAt = m.now().UTC()
	}

	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil || !m.current.Tokens.Valid() {
		return nil, ErrNoSession
	}
	out := *m.current
	return &out, nil
}

func (m *MemoryStore) HasValidSession(ctx context.Context) bool {
	return hasValid(ctx, m)
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	return nil
}
