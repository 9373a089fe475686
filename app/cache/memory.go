package cache

import (
	"context"
	"sync"
	"time"
)

type memItem struct {
	value   []byte
	expires time.Time
}

// MemoryStore is an in-process Store used in tests and when no Redis
// address is configured. Expired entries are dropped lazily on read.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memItem
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memItem),
		now:   time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_ = ctx
	s.mu.RLock()
	item, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !item.expires.IsZero() && s.now().After(item.expires) {
		// Re-check under the write lock: a concurrent Set may have replaced
		// the entry with a fresh one since the read above.
		s.mu.Lock()
		if cur, ok := s.items[key]; ok && !cur.expires.IsZero() && s.now().After(cur.expires) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_ = ctx
	item := memItem{value: make([]byte, len(value))}
	copy(item.value, value)
	if ttl > 0 {
		item.expires = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.items[key] = item
	s.mu.Unlock()
	return nil
}
