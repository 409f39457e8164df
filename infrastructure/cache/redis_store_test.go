package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hr-backend/application/ports"
)

func newRedisStore(t *testing.T, cfg RedisConfig) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg.URL = "redis://" + mr.Addr()
	if cfg.Timeout == 0 {
		cfg.Timeout = 200 * time.Millisecond
	}
	store, err := NewRedisStore(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStore_SetGetWithTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, RedisConfig{})

	assert.Equal(t, ports.LookupMiss, store.Get(ctx, "user:42").Status)

	require.NoError(t, store.Set(ctx, "user:42", []byte(`{"id":42}`), 600*time.Second))

	got := store.Get(ctx, "user:42")
	assert.Equal(t, ports.LookupHit, got.Status)
	assert.JSONEq(t, `{"id":42}`, string(got.Value))
	assert.Equal(t, 600*time.Second, mr.TTL("user:42"))
	assert.True(t, store.Exists(ctx, "user:42"))

	mr.FastForward(601 * time.Second)
	assert.Equal(t, ports.LookupMiss, store.Get(ctx, "user:42").Status)
	assert.False(t, store.Exists(ctx, "user:42"))
}

func TestRedisStore_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t, RedisConfig{})

	require.NoError(t, store.Set(ctx, "users:all", []byte(`[1]`), time.Minute))
	require.NoError(t, store.Set(ctx, "users:all", []byte(`[1,2]`), time.Minute))

	assert.Equal(t, `[1,2]`, string(store.Get(ctx, "users:all").Value))
}

func TestRedisStore_DeleteLiteralAndPattern(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, RedisConfig{KeyPrefix: "hr:"})

	for _, k := range []string{"user:1", "user:2", "user:3", "users:all", "department:1"} {
		require.NoError(t, store.Set(ctx, k, []byte("x"), time.Minute))
	}
	assert.True(t, mr.Exists("hr:user:1"))

	n, err := store.Delete(ctx, "department:1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.Delete(ctx, "department:1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = store.Delete(ctx, "user:*")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.True(t, store.Exists(ctx, "users:all"))
}

func TestRedisStore_DegradesWhenUnreachable(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, RedisConfig{})
	require.NoError(t, store.Ping(ctx))

	mr.Close()

	assert.Equal(t, ports.LookupUnavailable, store.Get(ctx, "user:1").Status)
	assert.Error(t, store.Set(ctx, "user:1", []byte("x"), time.Minute))
	n, err := store.Delete(ctx, "user:1")
	assert.Error(t, err)
	assert.Equal(t, int64(0), n)
	assert.False(t, store.Exists(ctx, "user:1"))
	assert.Error(t, store.Ping(ctx))
}

func TestRedisStore_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, RedisConfig{BreakerFailures: 2, BreakerCooldown: time.Hour})
	require.NoError(t, store.Set(ctx, "user:1", []byte("x"), time.Minute))

	mr.Close()
	store.Get(ctx, "user:1")
	store.Get(ctx, "user:1")

	require.NoError(t, mr.Restart())
	assert.Equal(t, ports.LookupUnavailable, store.Get(ctx, "user:1").Status)
}

func TestRedisStore_MissDoesNotTripBreaker(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t, RedisConfig{BreakerFailures: 1, BreakerCooldown: time.Hour})

	for i := 0; i < 3; i++ {
		assert.Equal(t, ports.LookupMiss, store.Get(ctx, "user:404").Status)
	}
	require.NoError(t, store.Set(ctx, "user:404", []byte("x"), time.Minute))
	assert.Equal(t, ports.LookupHit, store.Get(ctx, "user:404").Status)
}

func TestNewRedisStore_RejectsBadURL(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{URL: "http://nope"}, zap.NewNop())
	assert.Error(t, err)
}
