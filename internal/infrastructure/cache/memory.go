package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/cleservice/backend/internal/domain"
)

const (
	defaultMaxEntries = 100
	defaultTTL        = 5 * time.Second
)

// cacheItem represents a single item in the cache with expiration
type cacheItem struct {
	Value      interface{}
	Expiration time.Time
}

// MemoryCache is a thread-safe in-memory cache bounded both in entry count
// and in age. Per-entry TTLs are honoured but never exceed maxTTL, which is
// also the age at which the underlying LRU drops entries on its own.
type MemoryCache struct {
	lru    *expirable.LRU[string, cacheItem]
	maxTTL time.Duration
}

// NewMemoryCache creates an in-memory cache holding at most maxEntries items
// for at most maxTTL each. Non-positive arguments fall back to 100 entries / 5s.
func NewMemoryCache(maxEntries int, maxTTL time.Duration) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if maxTTL <= 0 {
		maxTTL = defaultTTL
	}

	return &MemoryCache{
		lru:    expirable.NewLRU[string, cacheItem](maxEntries, nil, maxTTL),
		maxTTL: maxTTL,
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	item, ok := c.lru.Get(key)
	if !ok {
		return nil, domain.ErrCacheMiss
	}

	if time.Now().After(item.Expiration) {
		c.lru.Remove(key)
		return nil, domain.ErrCacheMiss
	}

	return item.Value, nil
}

// Set stores a value in the cache. A non-positive ttl, or one longer than the
// cache's maximum, is replaced by the maximum.
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 || ttl > c.maxTTL {
		ttl = c.maxTTL
	}

	c.lru.Add(key, cacheItem{
		Value:      value,
		Expiration: time.Now().Add(ttl),
	})
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	item, ok := c.lru.Peek(key)
	if !ok {
		return false, nil
	}
	return !time.Now().After(item.Expiration), nil
}

// Size returns the current number of items in the cache (for debugging/monitoring)
func (c *MemoryCache) Size() int {
	return c.lru.Len()
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.lru.Purge()
}
