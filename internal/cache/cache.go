// Package cache provides the key/value stores shared by the content client
// and the slide cache.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store is a concurrency-safe key/value cache.
type Store[K comparable, V any] interface {
	Get(key K) (V, bool)
	Put(key K, value V)
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Memory is an in-memory Store. With a zero TTL entries live for the life
// of the process.
type Memory[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory returns an empty Memory store.
func NewMemory[K comparable, V any](ttl time.Duration) *Memory[K, V] {
	return &Memory[K, V]{
		entries: make(map[K]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || m.expiredLocked(e) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key, overwriting any previous value.
func (m *Memory[K, V]) Put(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry[V]{value: value, storedAt: m.now()}
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Cleanup removes expired entries.
func (m *Memory[K, V]) Cleanup() {
	if m.ttl <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if m.expiredLocked(e) {
			delete(m.entries, k)
		}
	}
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (m *Memory[K, V]) RunCleanup(ctx context.Context, interval time.Duration) {
	if m.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cleanup()
		}
	}
}

func (m *Memory[K, V]) expiredLocked(e entry[V]) bool {
	return m.ttl > 0 && m.now().Sub(e.storedAt) > m.ttl
}
