package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutReplaces(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := NewEntry(1, 10, "Alice", []string{"tasks.view", "tasks.edit"})
	require.NoError(t, store.Put(ctx, "sid", first))

	// A second Put for the same id replaces the whole set, it never merges.
	second := NewEntry(1, 10, "Alice", []string{"tasks.view"})
	require.NoError(t, store.Put(ctx, "sid", second))

	got, ok, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Has("tasks.view"))
	require.False(t, got.Has("tasks.edit"))
}

func TestMemoryStoreGetAbsent(t *testing.T) {
	store := NewMemoryStore()

	_, ok, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreInvalidateIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sid", NewEntry(1, 10, "Alice", nil)))
	require.NoError(t, store.Invalidate(ctx, "sid"))
	require.NoError(t, store.Invalidate(ctx, "sid"))

	_, ok, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreEvictBefore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	old := NewEntry(1, 10, "Alice", nil)
	old.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, store.Put(ctx, "old", old))
	require.NoError(t, store.Put(ctx, "fresh", NewEntry(2, 10, "Bob", nil)))

	evicted := store.EvictBefore(time.Now().UTC().Add(-time.Hour))
	require.Equal(t, 1, evicted)
	require.Equal(t, 1, store.Len())

	_, ok, err := store.Get(ctx, "old")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreSweepExpiresEntries(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	old := NewEntry(1, 10, "Alice", nil)
	old.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, store.Put(ctx, "old", old))

	go store.Sweep(ctx, time.Millisecond, time.Hour)

	require.Eventually(t, func() bool {
		return store.Len() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestEntryDeduplicatesAndSorts(t *testing.T) {
	entry := NewEntry(1, 10, "Alice", []string{"b", "a", "b"})

	require.Equal(t, []string{"a", "b"}, entry.Permissions())
	require.True(t, entry.Has("a"))
	require.False(t, entry.Has("c"))

	// Callers get a copy, not the backing slice.
	names := entry.Permissions()
	names[0] = "mutated"
	require.Equal(t, []string{"a", "b"}, entry.Permissions())
}
