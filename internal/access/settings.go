// Package access decides whether a member may exercise a badge at an access terminal.
package access

import "strings"

// DefaultAllowedRoles are the roles that qualify a member for hardware access.
var DefaultAllowedRoles = []string{"member", "services", "instructor"}

// Settings toggles the individual checks of the decision pipeline. The zero value disables every
// check; use DefaultSettings for the enabled-by-default configuration.
type Settings struct {
	CheckIdentityExists bool
	CheckIdentityStatus bool
	CheckPausePayment   bool
	CheckHasPermission  bool
	CheckBadgeStatus    bool
	AllowedRoles        []string
}

// DefaultSettings returns the settings with every check enabled.
func DefaultSettings() Settings {
	return Settings{
		CheckIdentityExists: true,
		CheckIdentityStatus: true,
		CheckPausePayment:   true,
		CheckHasPermission:  true,
		CheckBadgeStatus:    true,
		AllowedRoles:        append([]string(nil), DefaultAllowedRoles...),
	}
}

// Roles returns the configured allowed roles, falling back to DefaultAllowedRoles.
func (s Settings) Roles() []string {
	roles := make([]string, 0, len(s.AllowedRoles))
	for _, role := range s.AllowedRoles {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		return append([]string(nil), DefaultAllowedRoles...)
	}
	return roles
}
