package bootstrap

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/cache"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/config"
	infralogger "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/logger"
	infraredis "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/redis"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/retry"
)

// CacheComponents holds the optional result cache.
type CacheComponents struct {
	Client *redis.Client
	Cache  *cache.RedisCache
}

// Close releases the Redis client.
func (c *CacheComponents) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// SetupCache creates the Redis result cache if enabled.
// Returns nil if Redis is disabled or unavailable; classification works without it.
func SetupCache(ctx context.Context, cfg *config.Config, checksum string, log infralogger.Logger) *CacheComponents {
	if !cfg.Redis.Enabled {
		return nil
	}

	var client *redis.Client
	err := retry.Retry(ctx, retry.DefaultConfig(), func() error {
		var connErr error
		client, connErr = infraredis.NewClient(ctx, infraredis.Config{
			Address:  cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
			Timeout:  cfg.Redis.Timeout,
		})
		return connErr
	})
	if err != nil {
		log.Warn("Redis not available, result cache disabled",
			infralogger.String("redis_address", cfg.Redis.URL),
			infralogger.Error(err),
		)
		return nil
	}

	log.Info("Result cache initialized",
		infralogger.String("redis_address", cfg.Redis.URL),
		infralogger.Duration("ttl", cfg.Redis.ClassificationCacheTTL),
	)
	return &CacheComponents{
		Client: client,
		Cache:  cache.NewRedisCache(client, checksum, cfg.Redis.ClassificationCacheTTL),
	}
}
