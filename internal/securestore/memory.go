package securestore

import (
	"context"
	"sync"
)

// Memory is an in-memory Storage for tests and ephemeral sessions.
// It does not encrypt at rest.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]string)}
}

func (m *Memory) Get(ctx context.Context, service, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[service][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(ctx context.Context, service, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[service] == nil {
		m.data[service] = make(map[string]string)
	}
	m.data[service][key] = value
	return nil
}

func (m *Memory) Remove(ctx context.Context, service, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[service], key)
	return nil
}
