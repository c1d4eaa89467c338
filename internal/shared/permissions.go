package shared

// The permission catalog is a closed set: every gate check references one of
// these constants, so an unknown permission name fails at compile time
// instead of silently denying at runtime. Rows in the permissions table are
// synced from this catalog at startup.

// Core platform permissions.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermPermissionsView = "permissions.view"
)

// Task tracking permissions.
const (
	PermTasksView     = "tasks.view"
	PermTasksCreate   = "tasks.create"
	PermTasksEdit     = "tasks.edit"
	PermTasksAssign   = "tasks.assign"
	PermTasksComplete = "tasks.complete"
)

// Inventory permissions.
const (
	PermInventoryView   = "inventory.view"
	PermInventoryEdit   = "inventory.edit"
	PermInventoryDelete = "inventory.delete"
)

// Transfer permissions.
const (
	PermTransfersView   = "transfers.view"
	PermTransfersCreate = "transfers.create"
)

// Audit and notification permissions.
const (
	PermAuditView          = "audit.view"
	PermNotificationsClear = "notifications.clear"
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersEdit,
		PermRolesView,
		PermRolesEdit,
		PermPermissionsView,
	}
}

// TaskScopes lists all permissions related to task tracking.
func TaskScopes() []string {
	return []string{
		PermTasksView,
		PermTasksCreate,
		PermTasksEdit,
		PermTasksAssign,
		PermTasksComplete,
	}
}

// InventoryScopes lists all permissions related to inventory.
func InventoryScopes() []string {
	return []string{
		PermInventoryView,
		PermInventoryEdit,
		PermInventoryDelete,
	}
}

// TransferScopes lists all permissions related to transfers.
func TransferScopes() []string {
	return []string{
		PermTransfersView,
		PermTransfersCreate,
	}
}

// OversightScopes lists audit and notification maintenance permissions.
func OversightScopes() []string {
	return []string{
		PermAuditView,
		PermNotificationsClear,
	}
}

// AllScopes returns the full catalog in a stable order.
func AllScopes() []string {
	var all []string
	all = append(all, CoreScopes()...)
	all = append(all, TaskScopes()...)
	all = append(all, InventoryScopes()...)
	all = append(all, TransferScopes()...)
	all = append(all, OversightScopes()...)
	return all
}
