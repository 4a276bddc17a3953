package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablekey/sdk/token"
)

func newRedisBackend(t *testing.T) *RedisBackend {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBackendFromClient(client, "test")
}

func TestRedisBackendPutGetDelete(t *testing.T) {
	ctx := context.Background()
	b := newRedisBackend(t)

	require.NoError(t, b.Put(ctx, "runs/alpha/result.json", []byte(`{"ok":true}`)))

	data, err := b.Get(ctx, "runs/alpha/result.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"ok":true}`), data)

	require.NoError(t, b.Delete(ctx, "runs/alpha/result.json"))

	_, err = b.Get(ctx, "runs/alpha/result.json")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, b.Delete(ctx, "runs/alpha/result.json"), ErrNotFound)
}

func TestRedisBackendList(t *testing.T) {
	ctx := context.Background()
	b := newRedisBackend(t)

	for _, loc := range []string{"runs/b/out", "runs/a/out", "meta/info"} {
		require.NoError(t, b.Put(ctx, loc, []byte("x")))
	}

	runs, err := b.List(ctx, "runs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/a/out", "runs/b/out"}, runs)
}

func TestRedisBackendObjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(token.DefaultRegistry.Clear)

	c := New(newRedisBackend(t))

	obj := newBundle("run", newSample("water", 3))
	key, err := c.PutObject(ctx, obj)
	require.NoError(t, err)

	token.DefaultRegistry.Clear()

	got, err := c.GetObject(ctx, key)
	require.NoError(t, err)
	assert.True(t, token.Equal(obj, got))
}

func TestNewRedisBackendRejectsBadURL(t *testing.T) {
	_, err := NewRedisBackend(RedisOptions{URL: "://bad"})
	assert.Error(t, err)
}
