package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hr-backend/application/ports"
)

func TestMemoryStore_TTLAndPatternDelete(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(16, "")
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "user:1", []byte("a"), 10*time.Second))
	require.NoError(t, store.Set(ctx, "user:2", []byte("b"), time.Minute))
	require.NoError(t, store.Set(ctx, "users:all", []byte("[]"), time.Minute))

	assert.Equal(t, ports.LookupHit, store.Get(ctx, "user:1").Status)

	now = now.Add(11 * time.Second)
	assert.Equal(t, ports.LookupMiss, store.Get(ctx, "user:1").Status)
	assert.True(t, store.Exists(ctx, "user:2"))

	n, err := store.Delete(ctx, "user:*")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.True(t, store.Exists(ctx, "users:all"))

	n, err = store.Delete(ctx, "users:all")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryStore_CopiesValue(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0, "")
	buf := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'z'

	assert.Equal(t, "abc", string(store.Get(ctx, "k").Value))
}

func TestDisabledStore(t *testing.T) {
	ctx := context.Background()
	var store DisabledStore

	assert.Equal(t, ports.LookupUnavailable, store.Get(ctx, "user:1").Status)
	assert.NoError(t, store.Set(ctx, "user:1", nil, time.Second))
	n, err := store.Delete(ctx, "*")
	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.ErrorIs(t, store.Ping(ctx), ErrDisabled)
}

func TestOpen(t *testing.T) {
	logger := zap.NewNop()

	store, closer, err := Open("", "", logger)
	require.NoError(t, err)
	assert.IsType(t, DisabledStore{}, store)
	assert.NoError(t, closer.Close())

	store, _, err = Open("memory://?size=8", "hr:", logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, closer, err = Open("redis://localhost:6379/0", "", logger)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, store)
	assert.NoError(t, closer.Close())

	_, _, err = Open("memcached://localhost", "", logger)
	assert.Error(t, err)

	_, _, err = Open("memory://?size=lots", "", logger)
	assert.Error(t, err)
}
