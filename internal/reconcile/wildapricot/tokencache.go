package wildapricot

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryTokenCache keeps the access token in process memory.
type MemoryTokenCache struct {
	mu      sync.RWMutex
	token   string
	expires time.Time
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{}
}

func (c *MemoryTokenCache) Get(_ context.Context) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" || time.Now().After(c.expires) {
		return "", false
	}
	return c.token, true
}

func (c *MemoryTokenCache) Set(_ context.Context, token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expires = time.Now().Add(ttl)
}

const redisTokenKey = "wildapricot:access_token"

// RedisTokenCache shares the access token across replicas through Redis.
// Failures degrade to a cache miss; the caller just fetches a fresh token.
type RedisTokenCache struct {
	client *redis.Client
}

func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

func (c *RedisTokenCache) Get(ctx context.Context) (string, bool) {
	token, err := c.client.Get(ctx, redisTokenKey).Result()
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

func (c *RedisTokenCache) Set(ctx context.Context, token string, ttl time.Duration) {
	_ = c.client.Set(ctx, redisTokenKey, token, ttl).Err()
}
