package cache

import (
	"context"
	"sync"
	"time"
)

// MockFastStore is a map-backed FastStore for tests. TTLs are recorded but
// not enforced; tests simulate expiry by calling Clear.
type MockFastStore struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
	// Fail makes every operation behave as an unreachable backend.
	Fail bool
}

// NewMockFastStore creates a new mock fast store.
func NewMockFastStore() *MockFastStore {
	return &MockFastStore{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (m *MockFastStore) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return nil, false
	}
	val, found := m.data[key]
	return val, found
}

func (m *MockFastStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return
	}
	m.data[key] = val
	m.ttls[key] = ttl
}

// TTL reports the TTL recorded for key by the last Set.
func (m *MockFastStore) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[key]
}

// Len reports the number of stored entries.
func (m *MockFastStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// Clear removes all entries, simulating TTL expiry of the fast tier.
func (m *MockFastStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	m.ttls = make(map[string]time.Duration)
}
