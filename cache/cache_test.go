package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb, "ideahub:"), mr
}

func TestCaches(t *testing.T) {
	redisCache, _ := newRedisCache(t)
	caches := map[string]Cache{
		"memory": NewMemoryCache(),
		"redis":  redisCache,
	}

	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			n, err := c.Count(ctx, "attempts:1.2.3.4")
			require.NoError(t, err)
			assert.Equal(t, int64(0), n)

			for want := int64(1); want <= 3; want++ {
				n, err = c.Incr(ctx, "attempts:1.2.3.4", time.Minute)
				require.NoError(t, err)
				assert.Equal(t, want, n)
			}
			n, err = c.Count(ctx, "attempts:1.2.3.4")
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)

			require.NoError(t, c.Delete(ctx, "attempts:1.2.3.4"))
			n, err = c.Count(ctx, "attempts:1.2.3.4")
			require.NoError(t, err)
			assert.Equal(t, int64(0), n)

			require.NoError(t, c.Set(ctx, "revoked:abc", "1", time.Minute))
			v, found, err := c.Get(ctx, "revoked:abc")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "1", v)

			_, found, err = c.Get(ctx, "revoked:other")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	_, err := c.Incr(ctx, "attempts:x", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("ideahub:attempts:x"))
	assert.Equal(t, 10*time.Second, mr.TTL("ideahub:attempts:x"))

	mr.FastForward(4 * time.Second)
	n, err := c.Incr(ctx, "attempts:x", 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 6*time.Second, mr.TTL("ideahub:attempts:x"), "later increments keep the first window")

	mr.FastForward(7 * time.Second)

	n, err = c.Count(ctx, "attempts:x")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := c.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	n, err := c.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "the window starts at the first increment")

	now = now.Add(31 * time.Second)
	n, err = c.Count(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestRedisCache_IncrHealsKeyWithoutExpiry(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("ideahub:attempts:y", "3"))
	n, err := c.Incr(ctx, "attempts:y", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, time.Minute, mr.TTL("ideahub:attempts:y"))
}
