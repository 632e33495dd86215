// Package cache stores JSON-encoded values for the read-mostly catalog
// (tags and ingredient searches). Redis is used when REDIS_URL is set;
// otherwise an in-process map keeps the same semantics for a single replica.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Cache is a JSON value cache.
type Cache interface {
	// Get decodes the value stored under key into dst and reports whether
	// it was present.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Set stores v under key for ttl; ttl <= 0 keeps it until deleted.
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	// Delete removes keys; missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

type entry struct {
	raw     []byte
	expires time.Time
}

// Memory is an in-process Cache.
type Memory struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	e, ok := m.items[key]
	if ok && !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.items, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(e.raw, dst)
}

func (m *Memory) Set(_ context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e := entry{raw: raw}
	m.mu.Lock()
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.items[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.items, k)
	}
	m.mu.Unlock()
	return nil
}
