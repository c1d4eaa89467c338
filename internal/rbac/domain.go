package rbac

import "time"

// Role represents a named bundle of default permissions.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability from the catalog.
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// Override is a permission granted directly to a user on top of the role
// defaults. Overrides are additive only; removing the row removes the grant.
type Override struct {
	UserID       int64
	PermissionID int64
	CreatedAt    time.Time
}
