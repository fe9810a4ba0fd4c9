package user

type Role string

const (
	RoleOwner          Role = "owner"           // Company owner - full access
	RolePayrollOfficer Role = "payroll_officer" // Prepares and finalizes payroll
	RoleViewer         Role = "viewer"          // Read-only access to payroll periods
)

func (r Role) IsValid() bool {
	_, ok := RolePermissions[r]
	return ok
}
