package content

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores fetched workflow files in Redis with a TTL, so repeated
// optimization requests against the same file skip the provider API.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a cache over the given Redis client.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached content for the reference. A miss and a cache
// error look the same to the caller: both report not found, because the
// cache is an optimization and never a source of failure.
func (c *Cache) Get(ctx context.Context, ref FileRef) (string, bool) {
	val, err := c.client.Get(ctx, ref.Key()).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores the content for the reference. Errors are swallowed for the
// same reason Get treats them as misses.
func (c *Cache) Set(ctx context.Context, ref FileRef, content string) {
	_ = c.client.Set(ctx, ref.Key(), content, c.ttl).Err()
}
