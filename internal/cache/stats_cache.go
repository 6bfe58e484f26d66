package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// IJSONCache stores JSON-encodable values under a key with a TTL. Entries
// are never invalidated explicitly; the TTL bounds how stale they get.
type IJSONCache interface {
	Get(ctx context.Context, key string, dst interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

var _ IJSONCache = (*redisJSONCache)(nil)

type redisJSONCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisJSONCache returns a cache backed by rdb. Keys are namespaced with prefix.
func NewRedisJSONCache(rdb *redis.Client, prefix string) IJSONCache {
	return &redisJSONCache{rdb: rdb, prefix: prefix}
}

func (c *redisJSONCache) key(k string) string {
	return c.prefix + k
}

func (c *redisJSONCache) Get(ctx context.Context, key string, dst interface{}) error {
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	return nil
}

func (c *redisJSONCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s for cache: %w", key, err)
	}
	if err := c.rdb.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
