package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/trackline/trackline/internal/session"
	"github.com/trackline/trackline/internal/shared"
)

func newTestHandler(t *testing.T) (*Handler, *session.MemoryStore, *recordingAudit, chi.Router) {
	t.Helper()
	svc, _, store, auditLog := newTestService(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := session.NewManager("trackline_session", time.Hour, false)
	handler := NewHandler(logger, svc, manager)
	router := chi.NewRouter()
	handler.MountRoutes(router)
	return handler, store, auditLog, router
}

func logoutRequest(entry session.Entry) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	sc := shared.SessionContext{ID: "sid", Entry: entry}
	return req.WithContext(shared.ContextWithSession(req.Context(), sc))
}

func TestHandleLogoutFailedAuditFailsRequest(t *testing.T) {
	handler, store, auditLog, router := newTestHandler(t)
	ctx := context.Background()

	entry, err := handler.service.Login(ctx, "sid", "alice@trackline.local", "correct-horse")
	require.NoError(t, err)

	auditLog.fail = errors.New("audit down")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, logoutRequest(entry))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// The cache entry is gone regardless; once the audit store recovers the
	// retried logout records its entry and succeeds.
	_, ok, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	require.False(t, ok)

	auditLog.fail = nil
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, logoutRequest(entry))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "Logout", auditLog.entries[len(auditLog.entries)-1].Action)
}

func TestHandleLogoutWithoutSession(t *testing.T) {
	_, _, auditLog, router := newTestHandler(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, auditLog.entries)
}
