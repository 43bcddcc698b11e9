package service

import "sync"

// keyedMutex serializes work per key. Structural mutations on the same
// schedule (or code assignment on the same competition) must not interleave;
// unrelated keys proceed independently.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// NewEngineLocks builds the shared lock table wired into every mutating service.
func NewEngineLocks() *keyedMutex {
	return newKeyedMutex()
}
