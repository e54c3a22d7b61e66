// Package cache stores peripheral tool responses (search, fetch) for a short TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "mcp-tools"

type Cache interface {
	// Get reports ok=false on a miss. Backend errors are treated as misses.
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string)
}

// Key builds a namespaced key; parts are hashed so arbitrary user text is safe.
func Key(namespace string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return keyPrefix + ":" + namespace + ":" + hex.EncodeToString(sum[:])
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		return "", false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value string) {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

type NopCache struct{}

func (NopCache) Get(context.Context, string) (string, bool) { return "", false }

func (NopCache) Set(context.Context, string, string) {}
