package tenant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Cache is the byte store behind CachedResolver; redisstore.TenantCache implements it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Invalidator drops cached projections after a tenant row changes.
type Invalidator interface {
	Invalidate(ctx context.Context, t *Tenant)
}

// CachedResolver keeps hits for ttl. Misses are never cached, so a tenant that
// signs up is routable immediately. Cache failures fall through to the directory.
type CachedResolver struct {
	next  Resolver
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
}

func NewCachedResolver(next Resolver, cache Cache, ttl time.Duration, log zerolog.Logger) *CachedResolver {
	return &CachedResolver{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "tenant_cache").Logger(),
	}
}

func cacheKey(credential string) string {
	return "tenant:cred:" + credential
}

func (c *CachedResolver) Resolve(ctx context.Context, credential string) (*Resolved, error) {
	key := cacheKey(credential)
	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.Warn().Err(err).Msg("cache get failed")
	} else if ok {
		var r Resolved
		if err := json.Unmarshal(raw, &r); err == nil {
			return &r, nil
		}
	}

	r, err := c.next.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(r); err == nil {
		if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
			c.log.Warn().Err(err).Msg("cache set failed")
		}
	}
	return r, nil
}

func (c *CachedResolver) Invalidate(ctx context.Context, t *Tenant) {
	keys := []string{cacheKey(t.ID)}
	if t.GeneratedAPIKey != "" {
		keys = append(keys, cacheKey(t.GeneratedAPIKey))
	}
	if err := c.cache.Del(ctx, keys...); err != nil {
		c.log.Warn().Err(err).Str("tenant_id", t.ID).Msg("cache invalidate failed")
	}
}
