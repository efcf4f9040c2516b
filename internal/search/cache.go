package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/karaoke/internal/shared"
)

const keyPrefix = "search:"

// DefaultTTL is how long an aggregated response stays cached.
const DefaultTTL = 5 * time.Minute

const defaultMaxEntries = 512

// Cache stores whole serialized responses by key.
//
// Values are written whole and never merged.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CacheKey returns the store key of a normalized query.
func CacheKey(query string) string {
	return keyPrefix + query
}

// NewCache returns a redis-backed cache when a URL is configured and an in-process one otherwise.
func NewCache(cfg shared.CacheConfig) (Cache, error) {
	if cfg.RedisURL != "" {
		return NewRedisCache(cfg.RedisURL)
	}
	return NewMemoryCache(cfg.MaxEntries), nil
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is a bounded in-process [Cache].
type MemoryCache struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

// NewMemoryCache creates a cache holding at most size entries.
func NewMemoryCache(size int) *MemoryCache {
	if size <= 0 {
		size = defaultMaxEntries
	}
	return &MemoryCache{
		// entries expire individually; the LRU only bounds the size
		lru: expirable.NewLRU[string, memoryEntry](size, nil, 0),
		now: time.Now,
	}
}

// Get returns the value stored under key if it has not expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expires) {
		c.lru.Remove(key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key for ttl.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(key, memoryEntry{value: append([]byte(nil), value...), expires: c.now().Add(ttl)})
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// RedisCache is a [Cache] shared between processes through redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects lazily to the redis server at url (redis://host:port/db).
func NewRedisCache(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid redis url: %v", shared.ErrConfig, err)
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
