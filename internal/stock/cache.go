package stock

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache mirrors remaining stock per tier for cheap reads. It is never
// consulted to decide whether a reservation succeeds; a stale value is
// acceptable and is overwritten after every ledger mutation.
type Cache interface {
	// Get returns the cached remaining count; ok is false on a miss.
	Get(ctx context.Context, eventID, tierID uuid.UUID) (value int, ok bool, err error)
	Set(ctx context.Context, eventID, tierID uuid.UUID, value int) error
	Delete(ctx context.Context, eventID, tierID uuid.UUID) error
}

// StockKey is the cache key for a tier's remaining count.
func StockKey(eventID, tierID uuid.UUID) string {
	return fmt.Sprintf("event:%s:tier:%s", eventID, tierID)
}

// RedisCache stores counts as redis strings under StockKey.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, eventID, tierID uuid.UUID) (int, bool, error) {
	val, err := c.client.Get(ctx, StockKey(eventID, tierID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading stock cache: %w", err)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt stock cache value %q: %w", val, err)
	}
	return n, true, nil
}

func (c *RedisCache) Set(ctx context.Context, eventID, tierID uuid.UUID, value int) error {
	if err := c.client.Set(ctx, StockKey(eventID, tierID), strconv.Itoa(value), 0).Err(); err != nil {
		return fmt.Errorf("writing stock cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, eventID, tierID uuid.UUID) error {
	if err := c.client.Del(ctx, StockKey(eventID, tierID)).Err(); err != nil {
		return fmt.Errorf("deleting stock cache key: %w", err)
	}
	return nil
}

// MemoryCache is a map-backed Cache for tests and local development.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]int
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]int)}
}

func (c *MemoryCache) Get(ctx context.Context, eventID, tierID uuid.UUID) (int, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[StockKey(eventID, tierID)]
	return value, ok, nil
}

func (c *MemoryCache) Set(ctx context.Context, eventID, tierID uuid.UUID, value int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[StockKey(eventID, tierID)] = value
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, eventID, tierID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, StockKey(eventID, tierID))
	return nil
}
