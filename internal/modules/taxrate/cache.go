package taxrate

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "taxrate:%s"

// RedisCache keeps recently read rates in front of Postgres.
type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{redis: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, postalCode string) (*TaxRate, bool, error) {
	val, err := c.redis.Get(ctx, cacheKey(postalCode)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var r TaxRate
	if err := json.Unmarshal(val, &r); err != nil {
		return nil, false, fmt.Errorf("taxrate: decode cached rate: %w", err)
	}
	return &r, true, nil
}

func (c *RedisCache) Set(ctx context.Context, r TaxRate) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("taxrate: encode cached rate: %w", err)
	}
	return c.redis.Set(ctx, cacheKey(r.PostalCode), b, c.ttl).Err()
}

func cacheKey(postalCode string) string {
	return fmt.Sprintf(cacheKeyPrefix, postalCode)
}
