package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/trackline/trackline/internal/session"
	"github.com/trackline/trackline/internal/shared"
)

func newGatedRouter(t *testing.T, store session.Store) chi.Router {
	t.Helper()
	gate := NewGate(store, testLogger(), nil)
	mw := Middleware{Gate: gate}

	r := chi.NewRouter()
	r.With(mw.Require("tasks.view")).Get("/tasks", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.With(mw.RequireAny("tasks.edit", "tasks.assign")).Post("/tasks/{id}/assign", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func requestWithSession(method, target, sessionID string, entry session.Entry) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if sessionID == "" {
		return req
	}
	ctx := shared.ContextWithSession(context.Background(), shared.SessionContext{ID: sessionID, Entry: entry})
	return req.WithContext(ctx)
}

func TestRequireWithoutSessionIsUnauthorized(t *testing.T) {
	router := newGatedRouter(t, session.NewMemoryStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, requestWithSession(http.MethodGet, "/tasks", "", session.Entry{}))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireDeniedIsForbidden(t *testing.T) {
	store := session.NewMemoryStore()
	entry := session.NewEntry(1, 2, "Alice", []string{"notifications.clear"})
	require.NoError(t, store.Put(context.Background(), "sid", entry))
	router := newGatedRouter(t, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, requestWithSession(http.MethodGet, "/tasks", "sid", entry))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAllowedPasses(t *testing.T) {
	store := session.NewMemoryStore()
	entry := session.NewEntry(1, 2, "Alice", []string{"tasks.view"})
	require.NoError(t, store.Put(context.Background(), "sid", entry))
	router := newGatedRouter(t, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, requestWithSession(http.MethodGet, "/tasks", "sid", entry))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAnyMatchesOnePermission(t *testing.T) {
	store := session.NewMemoryStore()
	entry := session.NewEntry(1, 2, "Alice", []string{"tasks.assign"})
	require.NoError(t, store.Put(context.Background(), "sid", entry))
	router := newGatedRouter(t, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, requestWithSession(http.MethodPost, "/tasks/3/assign", "sid", entry))
	require.Equal(t, http.StatusOK, rec.Code)
}
