package roads

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"fleetplan/internal/geo"
)

// RedisCache memoizes edge lookups in Redis in front of another provider.
// Cache failures degrade to the inner provider, never to the caller.
type RedisCache struct {
	rdb   *redis.Client
	inner Provider
	ttl   time.Duration
}

// NewRedisCache wraps inner with a Redis cache. ttl <= 0 means 24h.
func NewRedisCache(rdb *redis.Client, inner Provider, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{rdb: rdb, inner: inner, ttl: ttl}
}

func edgeKey(from, to geo.Point) string {
	// 5 decimal places ~ 1m resolution, enough to key road edges.
	return fmt.Sprintf("edge:%.5f,%.5f|%.5f,%.5f", from.Lat, from.Lng, to.Lat, to.Lng)
}

func (c *RedisCache) Edge(ctx context.Context, from, to geo.Point) (EdgeResult, error) {
	key := edgeKey(from, to)
	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var res EdgeResult
		if err := json.Unmarshal(raw, &res); err == nil {
			return res, nil
		}
	}
	res, err := c.inner.Edge(ctx, from, to)
	if err != nil {
		return EdgeResult{}, err
	}
	if raw, err := json.Marshal(res); err == nil {
		_ = c.rdb.Set(ctx, key, raw, c.ttl).Err()
	}
	return res, nil
}
