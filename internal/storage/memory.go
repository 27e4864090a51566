package storage

import (
	"context"
	"sync"

	"github.com/varoOP/pokechu/internal/domain"
)

// Memory is a process-local domain.KVRepository used for ephemeral sessions.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
	// Fail makes every operation return it, simulating disabled storage.
	Fail error
}

var _ domain.KVRepository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return "", false, m.Fail
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.data[key] = value
	return nil
}

func (m *Memory) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}
