package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, time.Hour), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	entry := NewEntry(7, 2, "Alice", []string{"tasks.view", "tasks.edit"})
	require.NoError(t, store.Put(ctx, "sid", entry))

	got, ok, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(7), got.UserID)
	require.Equal(t, int64(2), got.RoleID)
	require.Equal(t, []string{"tasks.edit", "tasks.view"}, got.Permissions())
}

func TestRedisStoreReplaceAndInvalidate(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sid", NewEntry(7, 2, "Alice", []string{"a", "b"})))
	require.NoError(t, store.Put(ctx, "sid", NewEntry(7, 2, "Alice", []string{"a"})))

	got, ok, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, got.Has("b"))

	require.NoError(t, store.Invalidate(ctx, "sid"))
	require.NoError(t, store.Invalidate(ctx, "sid"))

	_, ok, err = store.Get(ctx, "sid")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sid", NewEntry(7, 2, "Alice", nil)))
	mr.FastForward(2 * time.Hour)

	_, ok, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	require.False(t, ok)
}
