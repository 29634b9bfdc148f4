package service

import (
	"context"
	"sync"
)

// Locker serializes the multi-step operations (rename, replace, delete)
// per storage key. Production uses the Redis locker; KeyMutex covers
// single-process runs and tests.
type Locker interface {
	Acquire(ctx context.Context, storageKey string) (func(), error)
}

type keyLockEntry struct {
	mu   sync.Mutex
	refs int
}

// KeyMutex is an in-process Locker keyed by storage key.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLockEntry
}

// NewKeyMutex creates an in-process per-key locker.
func NewKeyMutex() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*keyLockEntry)}
}

// Acquire blocks until the key lock is held and returns its release func.
func (m *KeyMutex) Acquire(_ context.Context, storageKey string) (func(), error) {
	m.mu.Lock()
	entry, ok := m.locks[storageKey]
	if !ok {
		entry = &keyLockEntry{}
		m.locks[storageKey] = entry
	}
	entry.refs++
	m.mu.Unlock()

	entry.mu.Lock()
	release := func() {
		entry.mu.Unlock()
		m.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(m.locks, storageKey)
		}
		m.mu.Unlock()
	}
	return release, nil
}
