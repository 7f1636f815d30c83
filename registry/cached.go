package registry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/albertocavalcante/go-depsolve/cache"
)

// Cached persists registry answers in a cache.Cache so repeated
// resolutions, or several processes sharing a Redis cache, skip the network.
// Cache failures are treated as misses; they never fail a lookup.
type Cached struct {
	src   Source
	cache cache.Cache
	ttl   time.Duration
}

// NewCached wraps src. A zero ttl keeps entries until the backend evicts them.
func NewCached(src Source, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{src: src, cache: c, ttl: ttl}
}

// BaseURL returns the wrapped source's URL.
func (c *Cached) BaseURL() string { return c.src.BaseURL() }

// GetMetadata returns cached metadata or fetches and stores it.
func (c *Cached) GetMetadata(ctx context.Context, name string) (*Metadata, error) {
	key := cache.Key("metadata", c.src.BaseURL(), name)
	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		var md Metadata
		if json.Unmarshal(data, &md) == nil {
			return &md, nil
		}
	}

	md, err := c.src.GetMetadata(ctx, name)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(md); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttl)
	}
	return md, nil
}

// GetManifest returns a cached manifest or fetches and stores it.
// Published manifests are immutable, so they are stored without expiry.
func (c *Cached) GetManifest(ctx context.Context, name, version string) ([]byte, error) {
	key := cache.Key("manifest", c.src.BaseURL(), name, version)
	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		return data, nil
	}

	data, err := c.src.GetManifest(ctx, name, version)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, key, data, 0)
	return data, nil
}

var _ Source = (*Cached)(nil)
