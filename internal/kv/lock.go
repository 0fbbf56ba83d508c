package kv

import "sync"

// KeyLock hands out one mutex per key. Entries are reference counted and
// dropped once no goroutine holds or waits on them, so unrelated keys never
// contend and the table does not grow without bound.
type KeyLock[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyLock[K comparable]() *KeyLock[K] {
	return &KeyLock[K]{entries: make(map[K]*lockEntry)}
}

// Lock blocks until key is free and returns the matching unlock.
func (l *KeyLock[K]) Lock(key K) (unlock func()) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
}

// Len reports how many keys currently have an entry.
func (l *KeyLock[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
