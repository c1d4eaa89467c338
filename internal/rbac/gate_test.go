package rbac

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trackline/trackline/internal/session"
)

type failingStore struct{}

func (failingStore) Put(context.Context, string, session.Entry) error {
	return errors.New("store down")
}

func (failingStore) Get(context.Context, string) (session.Entry, bool, error) {
	return session.Entry{}, false, errors.New("store down")
}

func (failingStore) Invalidate(context.Context, string) error {
	return errors.New("store down")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGateAllowsCachedPermission(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "sid", session.NewEntry(1, 2, "Alice", []string{"tasks.view"})))

	gate := NewGate(store, testLogger(), nil)
	require.True(t, gate.Allow(ctx, "sid", "tasks.view"))
	require.False(t, gate.Allow(ctx, "sid", "tasks.edit"))
}

func TestGateFailsClosed(t *testing.T) {
	ctx := context.Background()

	gate := NewGate(session.NewMemoryStore(), testLogger(), nil)
	require.False(t, gate.Allow(ctx, "", "tasks.view"))
	require.False(t, gate.Allow(ctx, "unknown", "tasks.view"))

	broken := NewGate(failingStore{}, testLogger(), nil)
	require.False(t, broken.Allow(ctx, "sid", "tasks.view"))
}

func TestGateInvalidatedSessionDenies(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "sid", session.NewEntry(1, 2, "Alice", []string{"tasks.view"})))

	gate := NewGate(store, testLogger(), nil)
	require.True(t, gate.Allow(ctx, "sid", "tasks.view"))

	require.NoError(t, store.Invalidate(ctx, "sid"))
	require.False(t, gate.Allow(ctx, "sid", "tasks.view"))
}

func TestGateAllowAll(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "sid", session.NewEntry(1, 2, "Alice", []string{"a", "b"})))

	gate := NewGate(store, testLogger(), nil)
	require.True(t, gate.AllowAll(ctx, "sid", "a", "b"))
	require.False(t, gate.AllowAll(ctx, "sid", "a", "c"))
	require.True(t, gate.AllowAll(ctx, "sid"))
}
