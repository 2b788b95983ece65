// Package listcache keeps recent maintenance list results keyed by filter set.
package listcache

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/ukydev/fleetfix/internal/models"
)

const (
	// KeyPrefix prefixes every data key.
	KeyPrefix = "repair_cache_"
	// TimestampPrefix prefixes the fetch-time keys of stores that keep them apart.
	TimestampPrefix = "repair_cache_timestamp_"
	// DefaultTTL is how long an entry stays fresh.
	DefaultTTL = 5 * time.Minute
)

// Store is the keyed storage behind the cache.
type Store interface {
	Get(ctx context.Context, key string) (*models.CacheEntry, bool, error)
	Put(ctx context.Context, key string, entry models.CacheEntry) error
	Delete(ctx context.Context, key string) error
	Purge(ctx context.Context) error
}

// FetchFunc loads the full list for a filter set from the remote API.
type FetchFunc func(ctx context.Context, filter models.FilterSet) ([]models.MaintenanceRequest, error)

// Cache is a TTL cache over a Store with coalesced fetches.
type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group
	log   *log.Entry

	// gen moves on every invalidation; fetches started under an older
	// generation never write.
	gen atomic.Uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache over store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store: store,
		ttl:   DefaultTTL,
		now:   time.Now,
		log:   log.WithField("component", "listcache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the store key for a filter set.
func Key(filter models.FilterSet) string {
	return KeyPrefix + filter.Key()
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached list if it is still fresh. Stale entries are
// evicted. Store failures count as a miss.
func (c *Cache) Get(ctx context.Context, filter models.FilterSet) ([]models.MaintenanceRequest, bool) {
	key := Key(filter)
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.WithError(err).Warn("cache read failed")
		return nil, false
	}
	if !ok || entry == nil {
		return nil, false
	}
	if c.now().Sub(entry.FetchedAt) < c.ttl {
		return entry.Data, true
	}
	if err := c.store.Delete(ctx, key); err != nil {
		c.log.WithError(err).Warn("cache evict failed")
	}
	return nil, false
}

// Put stores data for filter, replacing any prior entry.
func (c *Cache) Put(ctx context.Context, filter models.FilterSet, data []models.MaintenanceRequest) error {
	if data == nil {
		data = []models.MaintenanceRequest{}
	}
	return c.store.Put(ctx, Key(filter), models.CacheEntry{Data: data, FetchedAt: c.now()})
}

// Invalidate removes the entry for filter. A fetch already in flight will
// not write its result back.
func (c *Cache) Invalidate(ctx context.Context, filter models.FilterSet) error {
	c.gen.Add(1)
	return c.store.Delete(ctx, Key(filter))
}

// InvalidateAll removes every entry. Fetches already in flight will not
// write their results back.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	c.gen.Add(1)
	return c.store.Purge(ctx)
}

// GetOrFetch returns fresh cached data or calls fetch. Concurrent misses for
// the same key share one fetch. A failed fetch writes nothing.
//
// The shared fetch is detached from any one caller's cancellation; each
// caller still returns as soon as its own ctx is done.
func (c *Cache) GetOrFetch(ctx context.Context, filter models.FilterSet, fetch FetchFunc) ([]models.MaintenanceRequest, bool, error) {
	if data, ok := c.Get(ctx, filter); ok {
		return data, true, nil
	}

	key := Key(filter)
	gen := c.gen.Load()
	detached := context.WithoutCancel(ctx)
	// callers arriving after an invalidation start a fresh fetch
	ch := c.group.DoChan(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		// another caller may have filled the entry while we waited for the group
		if data, ok := c.Get(detached, filter); ok {
			return data, nil
		}
		data, err := fetch(detached, filter)
		if err != nil {
			return nil, err
		}
		if c.gen.Load() != gen {
			c.log.WithField("key", key).Debug("cache invalidated during fetch, result not stored")
			return data, nil
		}
		if err := c.Put(detached, filter, data); err != nil {
			c.log.WithError(err).WithField("key", key).Warn("cache write failed")
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		data, _ := res.Val.([]models.MaintenanceRequest)
		if data == nil {
			data = []models.MaintenanceRequest{}
		}
		return data, false, nil
	}
}
