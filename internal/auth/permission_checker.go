package auth

import (
	"slices"

	"github.com/frahmantamala/payable/internal/user"
)

const (
	PermissionDecideRequests   = "requests:decide"
	PermissionCreateUsers      = "users:create"
	PermissionManageCategories = "categories:manage"
	PermissionCreateExpenses   = "expenses:create"
	PermissionPayExpenses      = "expenses:pay"
)

// rolePermissions is the role matrix of the admin panel, dashboard and
// category screens.
var rolePermissions = map[string][]string{
	user.RoleViewer:  {},
	user.RoleCreator: {PermissionManageCategories, PermissionCreateExpenses},
	user.RolePayer:   {PermissionCreateExpenses, PermissionPayExpenses},
	user.RoleAdmin:   {PermissionDecideRequests, PermissionCreateUsers, PermissionManageCategories},
}

type PermissionChecker interface {
	HasPermission(role, permission string) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasPermission(role, permission string) bool {
	return slices.Contains(rolePermissions[role], permission)
}
