// internal/resolver/cache.go
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	apperrors "context-resolver/internal/common/errors"
	"context-resolver/internal/common/logger"
	"context-resolver/internal/models"

	"github.com/redis/go-redis/v9"
)

// Cache memoizes full resolution results keyed by the query signature.
// Values are stored as JSON so a hit can never alias a context the caller
// mutated. Staleness is checked lazily on lookup; there is no sweeper.
type Cache interface {
	Get(ctx context.Context, key string) (*models.ResolvedContext, bool)
	Set(ctx context.Context, key string, value *models.ResolvedContext)
	Clear(ctx context.Context) error
}

// CacheKey builds the memoization key from the query signature.
func CacheKey(q models.ContextQuery) string {
	return fmt.Sprintf("%s|%s|%d", q.Text, q.EntityTypeFilter, q.Limit)
}

type memoryEntry struct {
	payload   []byte
	timestamp time.Time
}

// MemoryCache is the in-process cache with an injected clock, so TTL expiry
// is testable without sleeping.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration, now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*models.ResolvedContext, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.timestamp) > c.ttl {
		return nil, false
	}

	var rc models.ResolvedContext
	if err := json.Unmarshal(entry.payload, &rc); err != nil {
		return nil, false
	}
	return &rc, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value *models.ResolvedContext) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{payload: payload, timestamp: c.now()}
	c.mu.Unlock()
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

const redisKeyPrefix = "resolver:ctx:"

// RedisCache shares the result cache across processes. Redis owns the TTL;
// a failed read or write just costs the memoization, never the resolution.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"cache": "redis"}),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*models.ResolvedContext, bool) {
	val, err := c.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			serr := apperrors.NewCacheError("read", err)
			c.logger.Warn("cache read failed", map[string]interface{}{"error": serr.Error()})
		}
		return nil, false
	}

	var rc models.ResolvedContext
	if err := json.Unmarshal([]byte(val), &rc); err != nil {
		return nil, false
	}
	return &rc, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value *models.ResolvedContext) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, payload, c.ttl).Err(); err != nil {
		serr := apperrors.NewCacheError("write", err)
		c.logger.Warn("cache write failed", map[string]interface{}{"error": serr.Error()})
	}
}

func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache clear failed: %w", err)
	}
	return nil
}
