package cache

import (
	"context"
	"sync"
	"time"

	"github.com/baglabel/backend/internal/domain"
)

const (
	// DefaultMaxEntries bounds the cache when no size is configured
	DefaultMaxEntries = 100

	// DefaultTTL is used when Set is called with a zero TTL
	DefaultTTL = 24 * time.Hour
)

// cacheItem represents a single item in the cache with expiration
type cacheItem struct {
	Value          interface{}
	ExpiresAt      time.Time
	LastAccessedAt time.Time
}

// MemoryCache is a thread-safe in-memory cache with TTL and LRU eviction.
// Expired entries are dropped lazily on access; there is no background sweep.
type MemoryCache struct {
	data       map[string]*cacheItem
	mutex      sync.Mutex
	maxEntries int
	defaultTTL time.Duration
	now        func() time.Time
}

// Option configures a MemoryCache
type Option func(*MemoryCache)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(c *MemoryCache) {
		c.now = now
	}
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(maxEntries int, defaultTTL time.Duration, opts ...Option) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}

	cache := &MemoryCache{
		data:       make(map[string]*cacheItem),
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// Get retrieves a value from the cache and marks it as recently used
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	item, exists := c.data[key]
	if !exists {
		return nil, domain.ErrCacheMiss
	}

	now := c.now()
	if now.After(item.ExpiresAt) {
		delete(c.data, key)
		return nil, domain.ErrCacheMiss
	}

	item.LastAccessedAt = now
	return item.Value, nil
}

// Set stores a value in the cache. A zero ttl means the default TTL.
// When the cache grows past its bound, the least recently accessed entry is evicted.
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	now := c.now()
	c.data[key] = &cacheItem{
		Value:          value,
		ExpiresAt:      now.Add(ttl),
		LastAccessedAt: now,
	}

	if len(c.data) > c.maxEntries {
		c.evictLeastRecentlyUsed()
	}

	return nil
}

// evictLeastRecentlyUsed removes the entry with the oldest access time.
// Linear scan; the cache is small. Caller must hold the lock.
func (c *MemoryCache) evictLeastRecentlyUsed() {
	var oldestKey string
	var oldestTime time.Time
	found := false

	for key, item := range c.data {
		if !found || item.LastAccessedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.LastAccessedAt
			found = true
		}
	}

	if found {
		delete(c.data, oldestKey)
	}
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired.
// Like Get, it counts as an access.
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.Get(ctx, key)
	if err == domain.ErrCacheMiss {
		return false, nil
	}
	return err == nil, err
}

// Stats describes the cache for monitoring
type Stats struct {
	Size       int           `json:"size"`
	MaxEntries int           `json:"maxEntries"`
	DefaultTTL time.Duration `json:"defaultTtl"`
}

// Stats returns the current size and bounds
func (c *MemoryCache) Stats() Stats {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return Stats{
		Size:       len(c.data),
		MaxEntries: c.maxEntries,
		DefaultTTL: c.defaultTTL,
	}
}

// Size returns the current number of items in the cache (for debugging/monitoring)
func (c *MemoryCache) Size() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]*cacheItem)
}
