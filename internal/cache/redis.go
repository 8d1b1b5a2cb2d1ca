// Package cache stores classification responses in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/lexicon"
)

// KeyPrefix namespaces every classification cache key.
const KeyPrefix = "tariff:classify"

// DefaultTTL applies when no TTL is configured.
const DefaultTTL = 24 * time.Hour

// RedisCache caches responses per lexicon checksum, so a lexicon change
// never serves results computed from another table.
type RedisCache struct {
	client   redis.UniversalClient
	checksum string
	ttl      time.Duration
}

// NewRedisCache creates a cache bound to one lexicon checksum.
func NewRedisCache(client redis.UniversalClient, checksum string, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, checksum: checksum, ttl: ttl}
}

// Key returns the cache key for input: tariff:classify:<checksum>:<sha256>.
// Inputs that normalize identically share a key.
func (c *RedisCache) Key(input domain.ClassificationInput) string {
	h := sha256.New()
	h.Write([]byte(lexicon.Normalize(input.Description)))
	h.Write([]byte{0})
	h.Write([]byte(lexicon.Normalize(input.FunctionHint)))
	h.Write([]byte{0})
	h.Write([]byte(lexicon.Normalize(input.TypeHint)))
	return fmt.Sprintf("%s:%s:%s", KeyPrefix, c.checksum, hex.EncodeToString(h.Sum(nil)))
}

// Get returns the cached response; ok is false on a miss.
func (c *RedisCache) Get(ctx context.Context, input domain.ClassificationInput) (*domain.ClassificationResponse, bool, error) {
	data, err := c.client.Get(ctx, c.Key(input)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached classification: %w", err)
	}

	var resp domain.ClassificationResponse
	if unmarshalErr := json.Unmarshal(data, &resp); unmarshalErr != nil {
		return nil, false, fmt.Errorf("decode cached classification: %w", unmarshalErr)
	}
	if resp.Results == nil {
		resp.Results = []domain.ClassificationResult{}
	}
	return &resp, true, nil
}

// Set stores resp with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, input domain.ClassificationInput, resp *domain.ClassificationResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode classification: %w", err)
	}
	if setErr := c.client.Set(ctx, c.Key(input), data, c.ttl).Err(); setErr != nil {
		return fmt.Errorf("set cached classification: %w", setErr)
	}
	return nil
}

// Ping checks connectivity, used by the readiness check.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
