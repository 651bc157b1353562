package ratelimit_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/velora-dev/backend-velora/internal/ratelimit"
)

func TestLimiterSlidingWindow(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := ratelimit.Limiter{Client: client, Prefix: "test"}

	ctx := context.Background()
	window := 2 * time.Second
	max := 2

	for i := 0; i < max; i++ {
		v, err := limiter.Allow(ctx, "key", window, max)
		require.NoError(t, err)
		require.True(t, v.Allowed, "request %d should be allowed", i)
		require.Equal(t, max-(i+1), v.Remaining)
	}

	v, err := limiter.Allow(ctx, "key", window, max)
	require.NoError(t, err)
	require.False(t, v.Allowed)
	require.Zero(t, v.Remaining)

	mr.FastForward(window)

	v, err = limiter.Allow(ctx, "key", window, max)
	require.NoError(t, err)
	require.True(t, v.Allowed, "window should have slid past earlier events")
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := ratelimit.Limiter{Client: client, Prefix: "test"}
	ctx := context.Background()

	v, err := limiter.Allow(ctx, "10.0.0.1", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, v.Allowed)

	v, err = limiter.Allow(ctx, "10.0.0.1", time.Minute, 1)
	require.NoError(t, err)
	require.False(t, v.Allowed)

	v, err = limiter.Allow(ctx, "10.0.0.2", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, v.Allowed, "a different client must not share the window")
}

func TestLimiterDisabledWithoutClient(t *testing.T) {
	t.Parallel()

	v, err := ratelimit.Limiter{}.Allow(context.Background(), "key", time.Minute, 5)
	require.NoError(t, err)
	require.True(t, v.Allowed)
}
