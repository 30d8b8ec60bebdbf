package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/portfolioagent/portfolioagent/internal/metrics"
)

// RedisCache stores embeddings keyed by model and text hash.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     password,
			DB:           db,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}),
		ttl: ttl,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get reports ok=false on a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var vec []float32
	if err := json.Unmarshal(b, &vec); err != nil {
		return nil, false, fmt.Errorf("decode cached embedding: %w", err)
	}
	return vec, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, vec []float32) error {
	b, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, b, c.ttl).Err()
}

// CachedEmbedder fronts an Embedder with the Redis cache. Concurrent requests
// for the same text share one upstream call. Cache errors fall through to the
// embedder.
type CachedEmbedder struct {
	next  Embedder
	cache *RedisCache
	model string
	sf    singleflight.Group
}

func NewCachedEmbedder(next Embedder, cache *RedisCache, model string) *CachedEmbedder {
	return &CachedEmbedder{next: next, cache: cache, model: model}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(c.model, text)

	if vec, ok := c.lookup(ctx, key); ok {
		return vec, nil
	}

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Another caller may have filled the key while this one waited.
		if vec, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			return vec, nil
		}
		vec, err := c.next.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(ctx, key, vec); err != nil {
			log.Warn().Err(err).Msg("embedding cache write failed")
		}
		return vec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]float32), nil
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	vec, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.EmbeddingCache.WithLabelValues("error").Inc()
		log.Warn().Err(err).Msg("embedding cache read failed")
		return nil, false
	case ok:
		metrics.EmbeddingCache.WithLabelValues("hit").Inc()
		return vec, true
	default:
		metrics.EmbeddingCache.WithLabelValues("miss").Inc()
		return nil, false
	}
}

func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embed:" + model + ":" + hex.EncodeToString(sum[:])
}
