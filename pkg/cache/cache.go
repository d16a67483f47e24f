// Package cache is the get/set/invalidate capability injected into the
// registry. Values are opaque bytes; callers choose the encoding.
package cache

import (
	"context"
	"sync"
	"time"
)

type Cache interface {
	// Get returns ok=false on a miss or an expired entry.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type memEntry struct {
	val     []byte
	expires time.Time
}

// Memory is a process local TTL map, used when no redis is configured.
type Memory struct {
	mu    sync.RWMutex
	items map[string]memEntry
	now   func() time.Time
}

var _ Cache = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{items: make(map[string]memEntry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.mu.Lock()
		if cur, ok := m.items[key]; ok && cur.expires.Equal(e.expires) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), e.val...), true, nil
}

// Set stores a copy of val; ttl <= 0 never expires.
func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	e := memEntry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}
