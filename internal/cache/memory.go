package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type entry struct {
	raw     []byte
	expires time.Time
}

// Memory is a process local stand-in for RedisClient.
type Memory struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{items: map[string]entry{}, now: time.Now}
}

func (m *Memory) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.items, key)
		return nil, false
	}
	return e.raw, true
}

func (m *Memory) set(key string, raw []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := entry{raw: raw}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.items[key] = e
}

func (m *Memory) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.set(blacklistKey(jti), []byte("1"), ttl)
	return nil
}

func (m *Memory) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := m.get(blacklistKey(jti))
	return ok, nil
}

func (m *Memory) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	raw, ok := m.get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) SetJSON(_ context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.set(key, raw, ttl)
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}
