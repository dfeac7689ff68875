// Package cache holds the Redis-backed lookaside caches in front of the
// storage adapter.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/luguas/priceye/internal/records"
)

// RateCache caches currency rates by (base, quote, date). It satisfies the
// currency converter's RateReader and RateWriter; a nil cache is a no-op.
type RateCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRateCache connects a rate cache to Redis.
func NewRateCache(addr, password string, db int, ttl time.Duration, prefix string) (*RateCache, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	if prefix == "" {
		prefix = "fx"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RateCache{client: client, ttl: ttl, prefix: prefix}, nil
}

func (c *RateCache) key(base, quote string, date time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", c.prefix, base, quote, records.Midnight(date).Format("2006-01-02"))
}

// ReadCachedRate returns the cached rate for the pair and date, if present.
func (c *RateCache) ReadCachedRate(ctx context.Context, base, quote string, date time.Time) (float64, bool, error) {
	if c == nil || c.client == nil {
		return 0, false, nil
	}
	val, err := c.client.Get(ctx, c.key(base, quote, date)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	rate, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cached rate %q: %w", val, err)
	}
	return rate, true, nil
}

// SaveRate stores a rate with the configured TTL.
func (c *RateCache) SaveRate(ctx context.Context, base, quote string, date time.Time, rate float64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, c.key(base, quote, date), strconv.FormatFloat(rate, 'f', -1, 64), c.ttl).Err()
}

// Close releases the Redis connection.
func (c *RateCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
