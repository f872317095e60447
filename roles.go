package auth

// Role is the normalized user role consumed by the dashboard.
type Role = string

const (
	// RoleSuperAdmin holds every permission via the wildcard entry.
	RoleSuperAdmin Role = "super_admin"
	// RoleAdmin manages users, files, and packages.
	RoleAdmin Role = "admin"
	// RoleSupportAdmin handles user support and schedules.
	RoleSupportAdmin Role = "support_admin"
	// RoleModerator curates files and recipients.
	RoleModerator Role = "moderator"
	// RoleViewer is read-only.
	RoleViewer Role = "viewer"
)

// Permission identifies a dashboard capability.
type Permission = string

const (
	PermissionViewDashboard    Permission = "view_dashboard"
	PermissionViewFiles        Permission = "view_files"
	PermissionViewReports      Permission = "view_reports"
	PermissionManageFiles      Permission = "manage_files"
	PermissionManageFolders    Permission = "manage_folders"
	PermissionManageRecipients Permission = "manage_recipients"
	PermissionManageUsers      Permission = "manage_users"
	PermissionManageSchedules  Permission = "manage_schedules"
	PermissionManagePackages   Permission = "manage_packages"
	PermissionManageSettings   Permission = "manage_settings"
	PermissionDeleteFiles      Permission = "delete_files"
	PermissionDeleteUsers      Permission = "delete_users"

	// PermissionWildcard grants everything; only super_admin carries it.
	PermissionWildcard Permission = "*"
)

// rolePermissions is the authoritative role to permission-set table. It is a
// closed set; unknown roles hold nothing.
var rolePermissions = map[Role]map[Permission]struct{}{
	RoleViewer: permissionSet(
		PermissionViewDashboard,
		PermissionViewFiles,
		PermissionViewReports,
	),
	RoleModerator: permissionSet(
		PermissionViewDashboard,
		PermissionViewFiles,
		PermissionViewReports,
		PermissionManageFiles,
		PermissionManageFolders,
		PermissionManageRecipients,
	),
	RoleSupportAdmin: permissionSet(
		PermissionViewDashboard,
		PermissionViewFiles,
		PermissionViewReports,
		PermissionManageFiles,
		PermissionManageFolders,
		PermissionManageRecipients,
		PermissionManageUsers,
		PermissionManageSchedules,
	),
	RoleAdmin: permissionSet(
		PermissionViewDashboard,
		PermissionViewFiles,
		PermissionViewReports,
		PermissionManageFiles,
		PermissionManageFolders,
		PermissionManageRecipients,
		PermissionManageUsers,
		PermissionManageSchedules,
		PermissionManagePackages,
		PermissionManageSettings,
		PermissionDeleteFiles,
	),
	RoleSuperAdmin: permissionSet(
		PermissionWildcard,
	),
}

func permissionSet(perms ...Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// NormalizeRole maps a raw backend role onto the closed set the UI consumes.
// The backend reports its root accounts as "admin"; the dashboard presents
// them as "super_admin".
func NormalizeRole(raw string) Role {
	if raw == "admin" {
		return RoleSuperAdmin
	}
	return Role(raw)
}

// IsValidRole checks whether the role belongs to the closed set.
func IsValidRole(r Role) bool {
	_, ok := rolePermissions[r]
	return ok
}

// AllRoles returns the closed role set in descending privilege order.
func AllRoles() []Role {
	return []Role{
		RoleSuperAdmin,
		RoleAdmin,
		RoleSupportAdmin,
		RoleModerator,
		RoleViewer,
	}
}

// RoleHasPermission reports whether the role grants the permission. The
// wildcard entry makes super_admin pass for any permission string, including
// ones absent from every table.
func RoleHasPermission(role Role, permission Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	if _, wildcard := perms[PermissionWildcard]; wildcard {
		return true
	}
	_, granted := perms[permission]
	return granted
}
