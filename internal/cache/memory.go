package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// defaultMemoryCacheSize bounds the in-memory cache; beyond it the least
// recently used entries are evicted.
const defaultMemoryCacheSize = 1024

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-local expirable LRU cache for development and
// tests. Because the underlying LRU applies one TTL cache-wide, per-entry
// TTLs are enforced with an explicit expiry timestamp on read.
type MemoryStore struct {
	entries *lru.LRU[string, memoryEntry]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory cache holding at most size entries.
// A non-positive size selects the default capacity.
func NewMemoryStore(size int) *MemoryStore {
	if size <= 0 {
		size = defaultMemoryCacheSize
	}
	return &MemoryStore{
		// TTL 0 disables the LRU's own expiry; entry timestamps govern.
		entries: lru.NewLRU[string, memoryEntry](size, nil, 0),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := s.entries.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		s.entries.Remove(key)
		return nil, ErrCacheMiss
	}
	return entry.value, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.entries.Add(key, entry)
	return nil
}

func (s *MemoryStore) Close() error {
	s.entries.Purge()
	return nil
}
