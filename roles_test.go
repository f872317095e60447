package auth_test

import (
	"testing"

	auth "github.com/filevault/go-auth"
	"github.com/stretchr/testify/assert"
)

func TestRoleHasPermission(t *testing.T) {
	t.Run("viewer reads but never deletes", func(t *testing.T) {
		assert.True(t, auth.RoleHasPermission(auth.RoleViewer, auth.PermissionViewDashboard))
		assert.True(t, auth.RoleHasPermission(auth.RoleViewer, auth.PermissionViewFiles))
		assert.False(t, auth.RoleHasPermission(auth.RoleViewer, auth.PermissionDeleteUsers))
		assert.False(t, auth.RoleHasPermission(auth.RoleViewer, auth.PermissionManageUsers))
	})

	t.Run("moderator manages files but not users", func(t *testing.T) {
		assert.True(t, auth.RoleHasPermission(auth.RoleModerator, auth.PermissionManageFiles))
		assert.False(t, auth.RoleHasPermission(auth.RoleModerator, auth.PermissionManageUsers))
	})

	t.Run("support admin manages users and schedules", func(t *testing.T) {
		assert.True(t, auth.RoleHasPermission(auth.RoleSupportAdmin, auth.PermissionManageUsers))
		assert.True(t, auth.RoleHasPermission(auth.RoleSupportAdmin, auth.PermissionManageSchedules))
		assert.False(t, auth.RoleHasPermission(auth.RoleSupportAdmin, auth.PermissionManageSettings))
	})

	t.Run("admin stops short of deleting users", func(t *testing.T) {
		assert.True(t, auth.RoleHasPermission(auth.RoleAdmin, auth.PermissionDeleteFiles))
		assert.False(t, auth.RoleHasPermission(auth.RoleAdmin, auth.PermissionDeleteUsers))
	})

	t.Run("super admin holds everything via wildcard", func(t *testing.T) {
		assert.True(t, auth.RoleHasPermission(auth.RoleSuperAdmin, auth.PermissionDeleteUsers))
		assert.True(t, auth.RoleHasPermission(auth.RoleSuperAdmin, auth.PermissionViewDashboard))
		assert.True(t, auth.RoleHasPermission(auth.RoleSuperAdmin, "permission_that_nothing_defines"))
	})

	t.Run("unknown role holds nothing", func(t *testing.T) {
		assert.False(t, auth.RoleHasPermission("intern", auth.PermissionViewDashboard))
	})
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, auth.RoleSuperAdmin, auth.NormalizeRole("admin"))
	assert.Equal(t, auth.RoleSuperAdmin, auth.NormalizeRole("super_admin"))
	assert.Equal(t, auth.RoleViewer, auth.NormalizeRole("viewer"))
	assert.Equal(t, auth.Role("custom"), auth.NormalizeRole("custom"))
}

func TestRoleSet(t *testing.T) {
	for _, role := range auth.AllRoles() {
		assert.True(t, auth.IsValidRole(role), role)
	}
	assert.False(t, auth.IsValidRole("guest"))
}
