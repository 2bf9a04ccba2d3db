// internal/pkg/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache key builders. Kept in one place so invalidation can't drift from
// population.
func SubscriptionKey(userID string) string { return fmt.Sprintf("user:%s:subscription", userID) }
func AnalysisKey(contractID string) string { return fmt.Sprintf("contract:%s:analysis", contractID) }

const (
	SubscriptionTTL = 30 * time.Minute
	AnalysisTTL     = 24 * time.Hour
)

// Cache is a thin JSON layer over Redis. All operations are best-effort:
// a cache failure never fails the request, only skips the fast path.
type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get unmarshals the cached value into dest. Returns false on miss or
// any store error.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// Set marshals and stores the value with a TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, data, ttl)
}

// Delete drops a key.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if len(keys) > 0 {
		c.client.Del(ctx, keys...)
	}
}
