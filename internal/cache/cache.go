package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/notecloak/notecloak/internal/config"
	"github.com/notecloak/notecloak/internal/logger"
	"github.com/notecloak/notecloak/internal/pipeline"
	"github.com/notecloak/notecloak/internal/redact"
)

// ResultCache stores pipeline results in Redis keyed by a hash of the
// note text and placeholder style. Only processed output is cached;
// raw note text never reaches Redis.
type ResultCache struct {
	client *redis.Client
	config config.CacheConfig
	logger *logger.Logger
	stats  *cacheStats
}

type cacheStats struct {
	hits   atomic.Int64
	misses atomic.Int64
}

// Stats reports cache performance counters
type Stats struct {
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
	TotalKeys   int64   `json:"total_keys"`
	MemoryUsage int64   `json:"memory_usage_bytes"`
}

// New creates a Redis-backed result cache
func New(cfg config.CacheConfig, log *logger.Logger) (*ResultCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = cfg.MaxConnections
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	cache := &ResultCache{
		client: client,
		config: cfg,
		logger: log,
		stats:  &cacheStats{},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Result cache initialized",
		zap.String("redis_url", maskRedisURL(cfg.RedisURL)),
		zap.Int("max_connections", cfg.MaxConnections),
		zap.Duration("default_ttl", cfg.DefaultTTL))

	return cache, nil
}

// Get looks up a cached result. A miss returns (nil, nil); lookup
// errors are logged and treated as misses so the pipeline always runs.
func (rc *ResultCache) Get(ctx context.Context, text string, style redact.Style) (*pipeline.Result, error) {
	key := rc.resultKey(text, style)

	data, err := rc.client.Get(ctx, key).Result()
	if err == redis.Nil {
		rc.stats.misses.Add(1)
		rc.logger.Debug("Cache miss", zap.String("key", key))
		return nil, nil
	} else if err != nil {
		rc.logger.Error("Cache lookup failed", zap.Error(err))
		return nil, nil
	}

	var result pipeline.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		rc.logger.Error("Failed to unmarshal cached result", zap.Error(err))
		rc.client.Del(ctx, key)
		return nil, nil
	}

	rc.stats.hits.Add(1)
	rc.logger.Debug("Cache hit", zap.String("key", key))
	return &result, nil
}

// Store caches one pipeline result with the configured TTL
func (rc *ResultCache) Store(ctx context.Context, text string, style redact.Style, result *pipeline.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result for caching: %w", err)
	}

	key := rc.resultKey(text, style)
	if err := rc.client.Set(ctx, key, data, rc.config.DefaultTTL).Err(); err != nil {
		rc.logger.Error("Failed to cache result", zap.Error(err))
		return fmt.Errorf("failed to cache result: %w", err)
	}

	return nil
}

// StoreBatch caches multiple results in one round trip using a Redis
// pipeline
func (rc *ResultCache) StoreBatch(ctx context.Context, texts []string, style redact.Style, results []*pipeline.Result) error {
	if len(texts) != len(results) {
		return fmt.Errorf("texts and results length mismatch")
	}
	if len(results) == 0 {
		return nil
	}

	pipe := rc.client.Pipeline()
	for i, result := range results {
		data, err := json.Marshal(result)
		if err != nil {
			rc.logger.Error("Failed to marshal result for batch caching", zap.Error(err))
			continue
		}
		pipe.Set(ctx, rc.resultKey(texts[i], style), data, rc.config.DefaultTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		rc.logger.Error("Batch cache operation failed", zap.Error(err))
		return fmt.Errorf("batch cache operation failed: %w", err)
	}

	rc.logger.Debug("Batch cache operation completed", zap.Int("cached_results", len(results)))
	return nil
}

// GetStats returns cache performance statistics
func (rc *ResultCache) GetStats(ctx context.Context) (*Stats, error) {
	info, err := rc.client.Info(ctx, "memory").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get Redis info: %w", err)
	}

	stats := &Stats{
		Hits:   rc.stats.hits.Load(),
		Misses: rc.stats.misses.Load(),
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}

	for _, line := range strings.Split(info, "\r\n") {
		if strings.HasPrefix(line, "used_memory:") {
			if mem, err := strconv.ParseInt(strings.TrimPrefix(line, "used_memory:"), 10, 64); err == nil {
				stats.MemoryUsage = mem
			}
		}
	}

	if keys, err := rc.client.DBSize(ctx).Result(); err == nil {
		stats.TotalKeys = keys
	}

	return stats, nil
}

// Clear removes all cached results under the configured key prefix
func (rc *ResultCache) Clear(ctx context.Context) error {
	iter := rc.client.Scan(ctx, 0, rc.config.KeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	batchSize := 100
	for i := 0; i < len(keys); i += batchSize {
		end := i + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := rc.client.Del(ctx, keys[i:end]...).Err(); err != nil {
			rc.logger.Error("Failed to delete cache keys", zap.Error(err))
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
	}

	rc.logger.Info("Cache cleared", zap.Int("deleted_keys", len(keys)))
	return nil
}

// Close closes the Redis connection
func (rc *ResultCache) Close() error {
	if rc.client != nil {
		return rc.client.Close()
	}
	return nil
}

// resultKey hashes the note text and style into a stable cache key
func (rc *ResultCache) resultKey(text string, style redact.Style) string {
	hasher := sha256.New()
	hasher.Write([]byte(style))
	hasher.Write([]byte{0})
	hasher.Write([]byte(text))
	hash := hex.EncodeToString(hasher.Sum(nil))
	return fmt.Sprintf("%s:note:%s", rc.config.KeyPrefix, hash[:16])
}

// maskRedisURL masks credentials in a Redis URL for logging
func maskRedisURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			schemeParts := strings.Split(parts[0], "://")
			if len(schemeParts) == 2 {
				return schemeParts[0] + "://***@" + strings.Join(parts[1:], "@")
			}
		}
	}
	return url
}
