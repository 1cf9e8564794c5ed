package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestRedisLoginLimiter(t *testing.T) {
	srv, client := newMiniredisClient(t)
	limiter := NewRedisLoginLimiter(client, 2, time.Minute)
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "A@B.com")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, limiter.RecordFailure(ctx, "a@b.com"))
	ok, _ = limiter.Allow(ctx, "a@b.com")
	assert.True(t, ok)

	require.NoError(t, limiter.RecordFailure(ctx, " a@b.com "))
	ok, _ = limiter.Allow(ctx, "a@b.com")
	assert.False(t, ok, "keys are normalized so both failures count")

	assert.Equal(t, time.Minute, srv.TTL("auth:login_failures:a@b.com"))

	srv.FastForward(time.Minute + time.Second)
	ok, _ = limiter.Allow(ctx, "a@b.com")
	assert.True(t, ok, "counter expires after the window")
}

func TestRedisLoginLimiter_Reset(t *testing.T) {
	_, client := newMiniredisClient(t)
	limiter := NewRedisLoginLimiter(client, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.RecordFailure(ctx, "a@b.com"))
	ok, _ := limiter.Allow(ctx, "a@b.com")
	assert.False(t, ok)

	require.NoError(t, limiter.Reset(ctx, "a@b.com"))
	ok, _ = limiter.Allow(ctx, "a@b.com")
	assert.True(t, ok)
}

func TestRedisLoginLimiter_CounterWithoutTTLIsRepaired(t *testing.T) {
	srv, client := newMiniredisClient(t)
	limiter := NewRedisLoginLimiter(client, 3, time.Minute)
	ctx := context.Background()
	key := "auth:login_failures:a@b.com"
	require.NoError(t, srv.Set(key, "5"))

	ok, _ := limiter.Allow(ctx, "a@b.com")
	require.False(t, ok)

	require.NoError(t, limiter.RecordFailure(ctx, "a@b.com"))
	got, err := srv.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "6", got)
	assert.Equal(t, time.Minute, srv.TTL(key))

	srv.FastForward(30 * time.Second)
	require.NoError(t, limiter.RecordFailure(ctx, "a@b.com"))
	assert.Equal(t, 30*time.Second, srv.TTL(key), "later failures keep the original window")

	srv.FastForward(31 * time.Second)
	ok, _ = limiter.Allow(ctx, "a@b.com")
	assert.True(t, ok)
}
