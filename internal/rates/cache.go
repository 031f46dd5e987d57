package rates

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	platformredis "custos/internal/platform/redis"
	"custos/pkg/platform/sentinel"
)

// Cache holds recently fetched spot rates so a burst of authorizations does
// not hammer the oracle. Misses return sentinel.ErrNotFound.
type Cache interface {
	Get(ctx context.Context, base, quote string) (decimal.Decimal, error)
	Set(ctx context.Context, base, quote string, rate decimal.Decimal) error
}

// RedisCache caches spot rates in Redis with a short TTL. Stale rates are a
// financial-accuracy risk, so the TTL should stay in the tens of seconds.
type RedisCache struct {
	client *platformredis.Client
	ttl    time.Duration
}

func NewRedisCache(client *platformredis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func rateKey(base, quote string) string {
	return "rates:spot:" + base + ":" + quote
}

func (c *RedisCache) Get(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	val, err := c.client.Get(ctx, rateKey(base, quote)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return decimal.Zero, sentinel.ErrNotFound
		}
		return decimal.Zero, err
	}
	rate, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, sentinel.ErrNotFound
	}
	return rate, nil
}

func (c *RedisCache) Set(ctx context.Context, base, quote string, rate decimal.Decimal) error {
	return c.client.Set(ctx, rateKey(base, quote), rate.String(), c.ttl).Err()
}

// NoopCache disables caching; used when Redis is not configured.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string, string) (decimal.Decimal, error) {
	return decimal.Zero, sentinel.ErrNotFound
}

func (NoopCache) Set(context.Context, string, string, decimal.Decimal) error { return nil }
