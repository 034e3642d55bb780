package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

const (
	defaultCacheSize = 256
	defaultCacheTTL  = 5 * time.Minute
	warmWorkers      = 4
)

// Cached keeps recently used tenant snapshots in an expiring LRU in front of a slower store.
// Only successful lookups are cached.
type Cached struct {
	next  Store
	cache *expirable.LRU[string, *Tenant]
}

func NewCached(next Store, size int, ttl time.Duration) *Cached {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cached{
		next:  next,
		cache: expirable.NewLRU[string, *Tenant](size, nil, ttl),
	}
}

func (c *Cached) Tenant(ctx context.Context, key string) (*Tenant, error) {
	if t, ok := c.cache.Get(key); ok {
		return t, nil
	}
	t, err := c.next.Tenant(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, t)
	return t, nil
}

func (c *Cached) Invalidate(key string) {
	c.cache.Remove(key)
}

// Warm loads keys concurrently. Every key is attempted; the returned error joins all failures.
func (c *Cached) Warm(ctx context.Context, keys []string) error {
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(warmWorkers)
	for _, key := range keys {
		p.Go(func(ctx context.Context) error {
			t, err := c.Tenant(ctx, key)
			if err != nil {
				return fmt.Errorf("warm %s: %w", key, err)
			}
			log.Debug().Str("tenant_key", key).Int("items", t.Len()).Msg("catalog warmed")
			return nil
		})
	}
	return p.Wait()
}
