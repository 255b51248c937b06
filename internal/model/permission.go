package model

// Permission represents a string code for a specific console action.
type Permission string

const (
	// PermissionContentRead allows viewing subjects, chapters, and questions.
	PermissionContentRead Permission = "content:read"

	// PermissionContentWrite allows creating, updating, and deleting
	// subjects, chapters, and questions.
	PermissionContentWrite Permission = "content:write"

	// PermissionTestsRead allows viewing mock tests and their results.
	PermissionTestsRead Permission = "tests:read"

	// PermissionTestsWrite allows creating and updating mock tests.
	PermissionTestsWrite Permission = "tests:write"

	// PermissionTestsPublish allows publishing mock tests to students.
	PermissionTestsPublish Permission = "tests:publish"

	// PermissionResourcesWrite allows managing PDF resource entries.
	PermissionResourcesWrite Permission = "resources:write"

	// PermissionStudentsRead allows viewing student accounts.
	PermissionStudentsRead Permission = "students:read"

	// PermissionStudentsWrite allows creating, updating, and deleting students.
	PermissionStudentsWrite Permission = "students:write"

	// PermissionStudentsResetSession allows resetting a student's login session.
	PermissionStudentsResetSession Permission = "students:reset_session"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionContentRead,
	PermissionContentWrite,
	PermissionTestsRead,
	PermissionTestsWrite,
	PermissionTestsPublish,
	PermissionResourcesWrite,
	PermissionStudentsRead,
	PermissionStudentsWrite,
	PermissionStudentsResetSession,
}

// rolePermissions maps each fixed admin role to its permission set.
var rolePermissions = map[AdminRole][]Permission{
	RoleSuperAdmin: AllPermissions,
	RoleContentManager: {
		PermissionContentRead,
		PermissionContentWrite,
		PermissionTestsRead,
		PermissionTestsWrite,
		PermissionResourcesWrite,
	},
}

// PermissionsForRole returns the permission codes granted to a role.
// Unknown roles get no permissions.
func PermissionsForRole(role AdminRole) []string {
	perms := rolePermissions[role]
	codes := make([]string, 0, len(perms))
	for _, p := range perms {
		codes = append(codes, string(p))
	}
	return codes
}
