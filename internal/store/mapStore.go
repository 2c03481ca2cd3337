package store

import (
	"sync"
	"time"
)

// entry is a stored value with its deadline in Unix nanoseconds, 0 meaning none
type entry struct {
	value    []byte
	expireAt int64
}

func (e entry) expired(now int64) bool {
	return e.expireAt != 0 && now > e.expireAt
}

// MapStore keeps every key in one map behind a RWMutex.
// Expired keys are removed lazily, by the first Get that sees them
type MapStore struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewMapStore() *MapStore {
	return &MapStore{entries: make(map[string]entry)}
}

func (m *MapStore) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !e.expired(time.Now().UnixNano()) {
		return e.value, true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// a concurrent Set may have replaced the entry while we waited
	e, ok = m.entries[key]
	if ok && e.expired(time.Now().UnixNano()) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, ok
}

// Set stores a copy of value, so the caller may reuse its buffer.
// A ttl of zero or less clears any previous deadline
func (m *MapStore) Set(key string, value []byte, ttl time.Duration) {
	e := entry{value: append([]byte{}, value...)}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl).UnixNano()
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
}

// Delete reports false for keys that are missing or already expired
func (m *MapStore) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return false
	}
	delete(m.entries, key)
	return !e.expired(time.Now().UnixNano())
}
