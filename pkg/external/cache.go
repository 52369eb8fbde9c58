package external

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/staprolab/interpret-server/internal/domain"
)

// VectorCache wraps a Redis client as a second cache tier for embedding
// vectors. Only derived data is cached here; domain entities are never
// shared across requests.
type VectorCache struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// NewVectorCache creates a new vector cache client and verifies the
// connection.
func NewVectorCache(config domain.CacheConfig) (*VectorCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.PoolSize
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &VectorCache{
		redis:      client,
		defaultTTL: config.DefaultTTL,
	}, nil
}

type cachedVector struct {
	Vector    []float32 `json:"vector"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GetVector retrieves a cached embedding vector.
func (c *VectorCache) GetVector(ctx context.Context, key string) ([]float32, bool, error) {
	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil // Cache miss
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached vector: %w", err)
	}

	var cached cachedVector
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		// Remove corrupted cache entry
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	return cached.Vector, true, nil
}

// SetVector caches an embedding vector.
func (c *VectorCache) SetVector(ctx context.Context, key string, vector []float32, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	cached := cachedVector{
		Vector:    vector,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal cached vector: %w", err)
	}

	return c.redis.Set(ctx, key, data, ttl).Err()
}

// Ping checks if the Redis connection is alive.
func (c *VectorCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *VectorCache) Close() error {
	return c.redis.Close()
}

// cacheKey builds a stable key from a namespace and the raw text.
func cacheKey(prefix, text string) string {
	hash := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%x", prefix, hash[:16])
}
