package rbac

import "context"

// RepositoryPort defines data access for roles, permissions and overrides.
type RepositoryPort interface {
	RoleDefaultNames(ctx context.Context, roleID int64) ([]string, error)
	OverrideNames(ctx context.Context, userID int64) ([]string, error)
	UserRoleID(ctx context.Context, userID int64) (int64, error)

	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name, description string) (Role, error)
	DeleteRole(ctx context.Context, id int64) (int64, error)

	ListPermissions(ctx context.Context) ([]Permission, error)
	UpsertPermission(ctx context.Context, name, description string) (Permission, error)

	AttachPermissionToRole(ctx context.Context, roleID, permissionID int64) error
	DetachPermissionFromRole(ctx context.Context, roleID, permissionID int64) (int64, error)

	InsertOverride(ctx context.Context, userID, permissionID int64) error
	DeleteOverride(ctx context.Context, userID, permissionID int64) (int64, error)
}
