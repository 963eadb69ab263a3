package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"tasklist/internal/core/port"
)

// MemoryCache keeps entries in process. It is the default when no Redis URL
// is configured.
type MemoryCache struct {
	store *gocache.Cache
}

func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(defaultTTL, cleanupInterval)}
}

var _ port.CacheRepository = (*MemoryCache)(nil)

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, found := c.store.Get(key)

	if !found {
		return nil, false, nil
	}

	raw, ok := value.([]byte)

	if !ok {
		c.store.Delete(key)
		return nil, false, nil
	}

	return raw, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}

	c.store.Set(key, value, ttl)

	return nil
}

func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
		}
	}

	return nil
}

func (c *MemoryCache) Incr(_ context.Context, key string, delta int64) (int64, error) {
	_ = c.store.Add(key, int64(0), gocache.NoExpiration)

	return c.store.IncrementInt64(key, delta)
}

func (c *MemoryCache) ItemCount() int {
	return c.store.ItemCount()
}
