package credential

import (
	"context"
	"sync"
)

type Memory struct {
	mu    sync.RWMutex
	users map[string]string

	hasher hasher
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty store. A non-positive cost means bcrypt's default.
func NewMemory(cost int) *Memory {
	return &Memory{
		users:  make(map[string]string),
		hasher: newHasher(cost),
	}
}

func (m *Memory) Register(_ context.Context, username, password string) (bool, error) {
	m.mu.RLock()
	_, exists := m.users[username]
	m.mu.RUnlock()
	if exists {
		return false, nil
	}

	hash, err := m.hasher.hash(password)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Someone may have won the race while we were hashing.
	if _, exists := m.users[username]; exists {
		return false, nil
	}
	m.users[username] = hash

	return true, nil
}

func (m *Memory) Authenticate(_ context.Context, username, password string) (bool, error) {
	m.mu.RLock()
	hash, ok := m.users[username]
	m.mu.RUnlock()

	return ok && m.hasher.matches(hash, password), nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}
