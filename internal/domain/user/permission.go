package user

import "slices"

type Permission string

const (
	PermissionPayrollView     Permission = "payroll.view"
	PermissionPayrollEdit     Permission = "payroll.edit"
	PermissionPayrollFinalize Permission = "payroll.finalize"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermissionPayrollView,
		PermissionPayrollEdit,
		PermissionPayrollFinalize,
	},
	RolePayrollOfficer: {
		PermissionPayrollView,
		PermissionPayrollEdit,
		PermissionPayrollFinalize,
	},
	RoleViewer: {
		PermissionPayrollView,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}
	return slices.Contains(permissions, permission)
}
