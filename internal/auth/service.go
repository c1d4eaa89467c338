package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/trackline/trackline/internal/audit"
	"github.com/trackline/trackline/internal/session"
	"github.com/trackline/trackline/internal/shared"
)

// Resolver computes the effective permission set for a user.
type Resolver interface {
	Resolve(ctx context.Context, userID, roleID int64) ([]string, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	resolver Resolver
	sessions session.Store
	auditLog AuditPort
}

// NewService constructs a new Service.
func NewService(repo Repository, resolver Resolver, sessions session.Store, auditLog AuditPort) *Service {
	return &Service{repo: repo, resolver: resolver, sessions: sessions, auditLog: auditLog}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates, resolves the effective permission set as of now, and
// caches it under sessionID. The cached set is the snapshot the gate consults
// for the whole session; grant changes apply at the next login. A resolution
// failure is a hard authentication failure and leaves no cache entry.
func (s *Service) Login(ctx context.Context, sessionID, email, password string) (session.Entry, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return session.Entry{}, err
	}
	permissions, err := s.resolver.Resolve(ctx, user.ID, user.RoleID)
	if err != nil {
		return session.Entry{}, err
	}
	entry := session.NewEntry(user.ID, user.RoleID, user.DisplayName, permissions)
	if err := s.sessions.Put(ctx, sessionID, entry); err != nil {
		return session.Entry{}, err
	}
	if err := s.auditLog.Record(ctx, audit.Entry{
		ActorID: user.ID,
		Action:  "Login",
		Entity:  "sessions",
		Detail:  map[string]any{"role_id": user.RoleID},
	}); err != nil {
		// The session must not outlive a failed audit write.
		_ = s.sessions.Invalidate(ctx, sessionID)
		return session.Entry{}, err
	}
	return entry, nil
}

// Logout removes the cached session. Logging out an already-removed session
// is a no-op.
func (s *Service) Logout(ctx context.Context, sessionID string, actorID int64) error {
	if err := s.sessions.Invalidate(ctx, sessionID); err != nil {
		return err
	}
	if actorID == 0 {
		return nil
	}
	return s.auditLog.Record(ctx, audit.Entry{
		ActorID: actorID,
		Action:  "Logout",
		Entity:  "sessions",
	})
}
