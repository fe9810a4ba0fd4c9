package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       Role
		permission Permission
		want       bool
	}{
		{RoleOwner, PermissionPayrollFinalize, true},
		{RolePayrollOfficer, PermissionPayrollEdit, true},
		{RolePayrollOfficer, PermissionPayrollFinalize, true},
		{RoleViewer, PermissionPayrollView, true},
		{RoleViewer, PermissionPayrollEdit, false},
		{RoleViewer, PermissionPayrollFinalize, false},
		{Role("pending"), PermissionPayrollView, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.permission), func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.role, tt.permission))
		})
	}
}

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleOwner.IsValid())
	assert.True(t, RoleViewer.IsValid())
	assert.False(t, Role("admin").IsValid())
}
