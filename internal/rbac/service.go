package rbac

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/trackline/trackline/internal/shared"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("rbac: not found")

// Service resolves effective permission sets and carries the administrative
// grant/revoke operations.
type Service struct {
	repo    RepositoryPort
	resolve singleflight.Group
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Resolve computes the effective permission set for a user: role defaults
// united with per-user overrides, deduplicated and sorted. A role with zero
// default grants is valid. Concurrent resolutions for the same user collapse
// into one pair of lookups.
func (s *Service) Resolve(ctx context.Context, userID, roleID int64) ([]string, error) {
	key := strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(roleID, 10)
	result, err, _ := s.resolve.Do(key, func() (any, error) {
		defaults, err := s.repo.RoleDefaultNames(ctx, roleID)
		if err != nil {
			return nil, err
		}
		overrides, err := s.repo.OverrideNames(ctx, userID)
		if err != nil {
			return nil, err
		}
		return unionNames(defaults, overrides), nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// EffectiveFor resolves the effective set a user would receive at their next
// login. Administrative inspection only; live sessions keep their snapshot.
func (s *Service) EffectiveFor(ctx context.Context, userID int64) ([]string, error) {
	roleID, err := s.repo.UserRoleID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.Resolve(ctx, userID, roleID)
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
}

// DeleteRole removes a role by ID. Returns ErrNotFound if nothing was deleted.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	rows, err := s.repo.DeleteRole(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPermissions returns the stored catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// SyncCatalog upserts the declared permission constants into storage so the
// stored catalog always matches the compiled one.
func (s *Service) SyncCatalog(ctx context.Context) error {
	for _, name := range shared.AllScopes() {
		if _, err := s.repo.UpsertPermission(ctx, name, ""); err != nil {
			return err
		}
	}
	return nil
}

// GrantRolePermission records a default grant for a role. Granting an
// already-granted permission returns shared.ErrDuplicate.
func (s *Service) GrantRolePermission(ctx context.Context, roleID, permissionID int64) error {
	return s.repo.AttachPermissionToRole(ctx, roleID, permissionID)
}

// RevokeRolePermission removes a default grant.
func (s *Service) RevokeRolePermission(ctx context.Context, roleID, permissionID int64) error {
	rows, err := s.repo.DetachPermissionFromRole(ctx, roleID, permissionID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GrantOverride attaches a permission directly to a user. Live sessions are
// not touched; the grant applies at the user's next login.
func (s *Service) GrantOverride(ctx context.Context, userID, permissionID int64) error {
	return s.repo.InsertOverride(ctx, userID, permissionID)
}

// RevokeOverride removes a per-user grant, returning the user to whatever
// the role grants at next login.
func (s *Service) RevokeOverride(ctx context.Context, userID, permissionID int64) error {
	rows, err := s.repo.DeleteOverride(ctx, userID, permissionID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func unionNames(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, name := range a {
		set[name] = struct{}{}
	}
	for _, name := range b {
		set[name] = struct{}{}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
