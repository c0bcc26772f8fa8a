package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a nil-safe JSON view over a Redis client. A Cache with no client misses every lookup.
type Cache struct {
	client *redis.Client
}

// New wraps client, which may be nil.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Enabled reports whether a Redis client backs the cache.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	s, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// AddJSON marshals v and sets the key with TTL only if the key is absent.
// It reports whether the value was written.
func (c *Cache) AddJSON(ctx context.Context, key string, v any, ttl time.Duration) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	return c.client.SetNX(ctx, key, b, ttl).Result()
}

// maxStoreRetries bounds optimistic-lock retries in StoreJSONIf.
const maxStoreRetries = 5

// StoreJSONIf sets key to v unless a cached value exists and replace(cached) is false.
// The check and the write run under WATCH, so a concurrent writer makes the attempt retry
// against the value it wrote.
func (c *Cache) StoreJSONIf(ctx context.Context, key string, v any, ttl time.Duration, replace func(cached []byte) bool) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	txf := func(tx *redis.Tx) error {
		cached, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		case !replace(cached):
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxStoreRetries; i++ {
		err = c.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

// Aside tries Redis first; on a miss or a Redis failure it calls fetch, which must populate dest
// and return the key the loaded value belongs under (empty means key). The value is added only
// if that key is still absent, so a slow loader never overwrites a fresher entry.
// Cache writes are best-effort.
func (c *Cache) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() (string, error)) (hit bool, err error) {
	found, cacheErr := c.GetJSON(ctx, key, dest)
	if cacheErr == nil && found {
		return true, nil
	}

	storeKey, err := fetch()
	if err != nil {
		return false, err
	}
	if storeKey == "" {
		storeKey = key
	}

	_, _ = c.AddJSON(ctx, storeKey, dest, ttl)
	return false, nil
}

// Invalidate drops key from the cache.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if c.Enabled() {
		c.client.Del(ctx, key)
	}
}
