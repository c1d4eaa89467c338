package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trackline/trackline/internal/audit"
	"github.com/trackline/trackline/internal/session"
	"github.com/trackline/trackline/internal/shared"
)

type memoryUserRepo struct {
	users map[string]*User
}

func (r *memoryUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	user, ok := r.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

type stubResolver struct {
	names []string
	fail  error
	calls int
}

func (r *stubResolver) Resolve(_ context.Context, _, _ int64) ([]string, error) {
	r.calls++
	if r.fail != nil {
		return nil, r.fail
	}
	return r.names, nil
}

type recordingAudit struct {
	entries []audit.Entry
	fail    error
}

func (a *recordingAudit) Record(_ context.Context, entry audit.Entry) error {
	if a.fail != nil {
		return a.fail
	}
	a.entries = append(a.entries, entry)
	return nil
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newTestService(t *testing.T) (*Service, *stubResolver, *session.MemoryStore, *recordingAudit) {
	t.Helper()
	repo := &memoryUserRepo{users: map[string]*User{
		"alice@trackline.local": {
			ID:           7,
			Email:        "alice@trackline.local",
			DisplayName:  "Alice",
			PasswordHash: hash(t, "correct-horse"),
			RoleID:       2,
			IsActive:     true,
		},
		"gone@trackline.local": {
			ID:           8,
			Email:        "gone@trackline.local",
			PasswordHash: hash(t, "correct-horse"),
			RoleID:       2,
			IsActive:     false,
		},
	}}
	resolver := &stubResolver{names: []string{"tasks.view", "tasks.complete"}}
	store := session.NewMemoryStore()
	auditLog := &recordingAudit{}
	return NewService(repo, resolver, store, auditLog), resolver, store, auditLog
}

func TestLoginCachesResolvedPermissions(t *testing.T) {
	svc, resolver, store, auditLog := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Login(ctx, "sid", "alice@trackline.local", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, int64(7), entry.UserID)
	require.Equal(t, 1, resolver.calls)

	cached, ok, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, cached.Has("tasks.view"))
	require.False(t, cached.Has("tasks.edit"))

	require.Len(t, auditLog.entries, 1)
	require.Equal(t, "Login", auditLog.entries[0].Action)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "sid", "alice@trackline.local", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "sid", "nobody@trackline.local", "correct-horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "sid", "gone@trackline.local", "correct-horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, ok, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLoginFailsWhenResolutionFails(t *testing.T) {
	svc, resolver, store, _ := newTestService(t)
	resolver.fail = errors.New("rbac down")
	ctx := context.Background()

	_, err := svc.Login(ctx, "sid", "alice@trackline.local", "correct-horse")
	require.Error(t, err)

	_, ok, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLoginFailedAuditRemovesSession(t *testing.T) {
	svc, _, store, auditLog := newTestService(t)
	auditLog.fail = errors.New("audit down")
	ctx := context.Background()

	_, err := svc.Login(ctx, "sid", "alice@trackline.local", "correct-horse")
	require.Error(t, err)

	_, ok, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLogoutInvalidatesAndAudits(t *testing.T) {
	svc, _, store, auditLog := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "sid", "alice@trackline.local", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "sid", 7))
	_, ok, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "Logout", auditLog.entries[len(auditLog.entries)-1].Action)

	// Logging out again is a no-op with no extra audit noise for actor 0.
	require.NoError(t, svc.Logout(ctx, "sid", 0))
}
