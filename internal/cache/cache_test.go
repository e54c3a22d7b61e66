package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := zerolog.Nop()
	return NewRedisCache(client, ttl, &logger), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "k", "value")
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestRedisCache_Expires(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "k", "value")
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisCache_BackendDownIsMiss(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	mr.Close()

	c.Set(context.Background(), "k", "v")
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	a := Key("search", "golang", "10")
	b := Key("search", "golang", "5")

	assert.True(t, strings.HasPrefix(a, "mcp-tools:search:"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Key("search", "golang", "10"))
}

func TestNopCache(t *testing.T) {
	var c Cache = NopCache{}
	c.Set(context.Background(), "k", "v")
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}
