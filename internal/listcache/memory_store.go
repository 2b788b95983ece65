package listcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ukydev/fleetfix/internal/models"
)

// DefaultMaxEntries bounds the in-memory store.
const DefaultMaxEntries = 256

// MemoryStore keeps entries in a size-bounded LRU. Its own expiry only
// reclaims memory; freshness is decided by Cache.
type MemoryStore struct {
	lru *expirable.LRU[string, models.CacheEntry]
}

// NewMemoryStore creates a store holding at most maxEntries entries, each
// dropped after ttl.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{lru: expirable.NewLRU[string, models.CacheEntry](maxEntries, nil, ttl)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*models.CacheEntry, bool, error) {
	entry, ok := s.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return &entry, true, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, entry models.CacheEntry) error {
	s.lru.Add(key, entry)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.lru.Remove(key)
	return nil
}

func (s *MemoryStore) Purge(_ context.Context) error {
	s.lru.Purge()
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	return s.lru.Len()
}
