package kv

import (
	"context"
	"sync"
)

// Memory is an in-process Versioned store.
type Memory[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]memoryEntry[V]
	name    string
}

type memoryEntry[V any] struct {
	value   V
	version int64
}

// NewMemory returns an empty store. name is used in conflict errors.
func NewMemory[K comparable, V any](name string) *Memory[K, V] {
	return &Memory[K, V]{entries: make(map[K]memoryEntry[V]), name: name}
}

func (m *Memory[K, V]) Load(_ context.Context, key K) (V, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e := m.entries[key]
	return e.value, e.version, nil
}

func (m *Memory[K, V]) CompareAndSwap(_ context.Context, key K, version int64, value V) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[key].version != version {
		return Conflict(m.name)
	}
	m.entries[key] = memoryEntry[V]{value: value, version: version + 1}
	return nil
}

// Range calls fn for every stored value until fn returns false. fn must not
// call back into the store.
func (m *Memory[K, V]) Range(fn func(key K, value V) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, e := range m.entries {
		if !fn(k, e.value) {
			return
		}
	}
}
