package enums

import "fmt"

// Permission gates admin console actions. Roles carry a list of them.
type Permission string

const (
	PermissionUsersRead         Permission = "users:read"
	PermissionUsersWrite        Permission = "users:write"
	PermissionRolesRead         Permission = "roles:read"
	PermissionRolesWrite        Permission = "roles:write"
	PermissionVendorsRead       Permission = "vendors:read"
	PermissionVendorsWrite      Permission = "vendors:write"
	PermissionGamesRead         Permission = "games:read"
	PermissionGamesWrite        Permission = "games:write"
	PermissionWinnersRead       Permission = "winners:read"
	PermissionWinnersWrite      Permission = "winners:write"
	PermissionReportsRead       Permission = "reports:read"
	PermissionReportsWrite      Permission = "reports:write"
	PermissionSettingsWrite     Permission = "settings:write"
	PermissionNotificationsSend Permission = "notifications:send"
)

var validPermissions = []Permission{
	PermissionUsersRead,
	PermissionUsersWrite,
	PermissionRolesRead,
	PermissionRolesWrite,
	PermissionVendorsRead,
	PermissionVendorsWrite,
	PermissionGamesRead,
	PermissionGamesWrite,
	PermissionWinnersRead,
	PermissionWinnersWrite,
	PermissionReportsRead,
	PermissionReportsWrite,
	PermissionSettingsWrite,
	PermissionNotificationsSend,
}

// AllPermissions returns every permission; the super admin role holds them all.
func AllPermissions() []Permission {
	return append([]Permission(nil), validPermissions...)
}

func (p Permission) IsValid() bool {
	for _, candidate := range validPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

func ParsePermission(value string) (Permission, error) {
	for _, candidate := range validPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission %q", value)
}
