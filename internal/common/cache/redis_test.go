// internal/common/cache/redis_test.go
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"web-research-agent/internal/common/config"
)

func newTestCache(t *testing.T) *RedisCache {
	t.Helper()
	server := miniredis.RunT(t)
	c, err := New(config.CacheConfig{
		Address: server.Addr(),
		TTL:     time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCacheSetGetRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "search:web:ev", `[{"url":"https://example.com"}]`))

	got, err := c.Get(ctx, "search:web:ev")
	require.NoError(t, err)
	assert.Equal(t, `[{"url":"https://example.com"}]`, got)
}

func TestCacheMissIsDistinguishable(t *testing.T) {
	c := newTestCache(t)

	_, err := c.Get(context.Background(), "absent")

	require.Error(t, err)
	assert.True(t, IsMiss(err))
}

func TestCachePing(t *testing.T) {
	c := newTestCache(t)

	assert.NoError(t, c.Ping(context.Background()))
}
