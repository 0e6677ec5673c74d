package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "country:"
	StatusKey = keyPrefix + "status"
)

type ICountryCache interface {
	GetPayload(ctx context.Context, key string) ([]byte, bool)
	SetPayload(ctx context.Context, key string, payload []byte)
	Invalidate(ctx context.Context)
}

// CountryCache is a read-through cache for list/status response payloads.
// Every failure degrades to a miss so the database stays the source of truth.
type CountryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCountryCache(client *redis.Client, ttl time.Duration) ICountryCache {
	return &CountryCache{
		client: client,
		ttl:    ttl,
	}
}

// ListKey builds the cache key for one filter combination.
func ListKey(region, currency, sort string) string {
	return fmt.Sprintf("%slist:%s:%s:%s", keyPrefix, region, currency, sort)
}

func (c *CountryCache) GetPayload(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *CountryCache) SetPayload(ctx context.Context, key string, payload []byte) {
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		slog.Warn("Failed to cache payload", "key", key, "error", err)
	}
}

// Invalidate drops every cached country payload. Called after a refresh
// commit or a delete.
func (c *CountryCache) Invalidate(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		slog.Warn("Failed to scan cache keys", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("Failed to invalidate cache keys", "count", len(keys), "error", err)
	}
}
