package availability

import (
	"context"
	"encoding/json"
	"time"

	"booking-and-scheduling/internal/models"

	"github.com/redis/go-redis/v9"
)

// Cache is a short-lived, advisory slot cache. Misses and errors both fall
// through to a fresh computation; a stale hit is acceptable because the
// commit path re-checks capacity authoritatively.
type Cache interface {
	Get(ctx context.Context, key string) ([]models.SlotOption, bool)
	Set(ctx context.Context, key string, slots []models.SlotOption)
}

// RedisCache stores slot lists as JSON with a seconds-level TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]models.SlotOption, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var slots []models.SlotOption
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, false
	}
	return slots, true
}

func (c *RedisCache) Set(ctx context.Context, key string, slots []models.SlotOption) {
	data, err := json.Marshal(slots)
	if err != nil {
		return
	}
	// Best effort: a failed write only costs a recomputation.
	c.client.Set(ctx, key, data, c.ttl)
}
