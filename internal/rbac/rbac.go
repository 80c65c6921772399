// Package rbac holds the permission catalogue and the middleware gating
// routes on the caller's permissions.
package rbac

// Permission strings recognised by the system.
const (
	PermReportsRead    = "reports:read"
	PermReportsWrite   = "reports:write"
	PermReportsApprove = "reports:approve"
	PermReportsAdmin   = "reports:admin"
	PermUsersManage    = "users:manage"
	PermSchoolsManage  = "schools:manage"
	PermRolesManage    = "roles:manage"
	PermAnalyticsRead  = "analytics:read"
)

// Permissions lists every known permission string.
func Permissions() []string {
	return []string{
		PermReportsRead,
		PermReportsWrite,
		PermReportsApprove,
		PermReportsAdmin,
		PermUsersManage,
		PermSchoolsManage,
		PermRolesManage,
		PermAnalyticsRead,
	}
}

// KnownPermission reports whether perm is part of the catalogue.
func KnownPermission(perm string) bool {
	for _, p := range Permissions() {
		if p == perm {
			return true
		}
	}
	return false
}
