package generator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss indicates the requested key was not found in the cache.
var ErrCacheMiss = errors.New("cache miss")

// PageCache stores raw upstream response bodies keyed by CacheKey.String().
// Implementations must be safe for concurrent use.
type PageCache interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// CacheKey identifies one upstream response.
type CacheKey struct {
	Endpoint string
	Query    url.Values
}

// String generates a deterministic cache key string.
// Format: datatable:endpoint:query1=val1:query2=val2
//
// Example:
//
//	datatable:data:errorsPerRecord=2.5:pageNumber=3:region=USA:seed=42
func (k CacheKey) String() string {
	parts := []string{"datatable"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.Query) > 0 {
		keys := make([]string, 0, len(k.Query))
		for key := range k.Query {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.Query.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}

// MemoryCache is an in-process PageCache with per-entry expiry.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a memory cache whose entries live for ttl.
func NewMemoryCache(ttl, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(ttl, cleanupInterval),
	}
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if val, found := c.cache.Get(key); found {
		CacheHits.WithLabelValues("memory").Inc()
		return val.([]byte), nil
	}
	CacheMisses.Inc()
	return nil, ErrCacheMiss
}

// Set stores a value using the cache's default TTL.
func (c *MemoryCache) Set(_ context.Context, key string, data []byte) error {
	c.cache.SetDefault(key, data)
	return nil
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.cache.Delete(key)
	return nil
}

// Len returns the number of cached entries, including expired ones not yet
// cleaned up.
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}

// RedisCache is a PageCache shared between server instances.
type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisCache creates a Redis-backed cache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &RedisCache{redis: client, ttl: ttl}
}

// NewRedisCacheFromURL parses a redis:// URL, pings the server and returns a
// cache backed by it.
func NewRedisCacheFromURL(ctx context.Context, rawURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisCache(client, ttl), nil
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	CacheHits.WithLabelValues("redis").Inc()
	return data, nil
}

// Set stores a value in Redis with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte) error {
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (c *RedisCache) Close() error {
	return c.redis.Close()
}
