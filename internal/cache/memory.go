package cache

import (
	"context"
	"sync"
)

// Memory keeps the slot in process memory.
type Memory struct {
	mu   sync.Mutex
	slot *Entry
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(ctx context.Context, key string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slot == nil || m.slot.Key != key {
		return nil, nil
	}
	e := *m.slot
	return &e, nil
}

func (m *Memory) Save(ctx context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slot = &entry
	return nil
}

func (m *Memory) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slot = nil
	return nil
}
