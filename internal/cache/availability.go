// Package cache keeps availability query results in Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"camrent/internal/booking"
	"camrent/internal/events"
	"camrent/internal/metrics"
	"camrent/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	keyPrefix     = "camrent:available"
	generationKey = keyPrefix + ":gen"
)

// AvailabilityCache wraps an AvailabilityFinder with a Redis read-through cache.
// Entries are keyed by a generation counter that every mutation bumps, so a
// result computed before a write can only land under a key nobody reads again.
type AvailabilityCache struct {
	next   booking.AvailabilityFinder
	redis  *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

var _ booking.AvailabilityFinder = (*AvailabilityCache)(nil)

func NewAvailabilityCache(next booking.AvailabilityFinder, redisClient *redis.Client, ttl time.Duration, logger *zerolog.Logger) *AvailabilityCache {
	return &AvailabilityCache{next: next, redis: redisClient, ttl: ttl, logger: logger}
}

// FindAvailable serves from Redis when possible and falls back to the wrapped finder.
func (c *AvailabilityCache) FindAvailable(ctx context.Context, start, end time.Time) ([]models.Item, error) {
	if c.redis == nil || c.ttl <= 0 {
		return c.next.FindAvailable(ctx, start, end)
	}

	gen, err := c.generation(ctx)
	if err != nil {
		metrics.IncCacheError()
		c.logger.Warn().Err(err).Msg("availability cache unavailable")
		return c.next.FindAvailable(ctx, start, end)
	}

	key := entryKey(gen, start, end)
	var items []models.Item
	if c.readCache(ctx, key, &items) {
		metrics.IncCacheHit()
		return items, nil
	}
	metrics.IncCacheMiss()

	items, err = c.next.FindAvailable(ctx, start, end)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, key, items)
	return items, nil
}

// Invalidate retires every cached entry.
func (c *AvailabilityCache) Invalidate(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Incr(ctx, generationKey).Err()
}

// Subscribe invalidates the cache on every lifecycle event.
func (c *AvailabilityCache) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.All, func(e events.Event) error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.Invalidate(ctx); err != nil {
			return fmt.Errorf("invalidate availability cache after %s: %w", e.Type, err)
		}
		return nil
	})
}

func (c *AvailabilityCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.redis.Get(ctx, generationKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

func (c *AvailabilityCache) readCache(ctx context.Context, key string, out any) bool {
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *AvailabilityCache) writeCache(ctx context.Context, key string, val any) {
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func entryKey(gen int64, start, end time.Time) string {
	return fmt.Sprintf("%s:%d:%d:%d", keyPrefix, gen, start.UnixNano(), end.UnixNano())
}
