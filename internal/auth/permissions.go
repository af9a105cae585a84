package auth

// Admin API permissions carried in token claims.
const (
	PermissionViewAccessLogs = "access_logs.view"
	PermissionManageFallback = "fallback.manage"
	PermissionViewMembers    = "members.view"
	PermissionViewMonitoring = "monitoring.view"
)

// KnownPermissions lists every permission the admin API checks.
var KnownPermissions = []string{
	PermissionViewAccessLogs,
	PermissionManageFallback,
	PermissionViewMembers,
	PermissionViewMonitoring,
}
