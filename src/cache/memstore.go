package cache

import (
	"sync"
	"time"
)

// -----------------------------------------------------------------------------
// MemFastStore is the in-process L1: a map with per-entry expiry and lazy
// eviction. An expired entry is logically absent even while the row still
// sits in the map.
// -----------------------------------------------------------------------------

type memEntry struct {
	payload   []byte
	storedAt  time.Time
	expiresAt time.Time
}

type MemFastStore struct {
	mu    sync.RWMutex
	items map[string]memEntry
	now   func() time.Time
}

// -----------------------------------------------------------------------------

func NewMemFastStore() *MemFastStore {
	return &MemFastStore{
		items: make(map[string]memEntry),
		now:   time.Now,
	}
}

// -----------------------------------------------------------------------------

func (m *MemFastStore) Get(key string) ([]byte, time.Time, bool) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || m.now().After(e.expiresAt) {
		return nil, time.Time{}, false
	}
	return e.payload, e.storedAt, true
}

// -----------------------------------------------------------------------------

func (m *MemFastStore) Put(key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	now := m.now()

	m.mu.Lock()
	m.items[key] = memEntry{
		payload:   payload,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}
	// Opportunistic sweep so long-dead keys do not pile up.
	if len(m.items) > 1024 {
		for k, e := range m.items {
			if now.After(e.expiresAt) {
				delete(m.items, k)
			}
		}
	}
	m.mu.Unlock()
}

// -----------------------------------------------------------------------------

func (m *MemFastStore) Ping() error {
	return nil
}

// -----------------------------------------------------------------------------

// Flush drops every entry. Used by tests to force the durable path.
func (m *MemFastStore) Flush() {
	m.mu.Lock()
	m.items = make(map[string]memEntry)
	m.mu.Unlock()
}

// -----------------------------------------------------------------------------

// SetClock replaces the time source for tests.
func (m *MemFastStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}
