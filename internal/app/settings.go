package app

import (
	"time"

	"github.com/openmakers/badgegate/internal/access"
	"github.com/openmakers/badgegate/internal/fallback"
)

// Settings converts the access toggles into the evaluator representation.
func (c AccessConfig) Settings() access.Settings {
	return access.Settings{
		CheckIdentityExists: c.CheckUserExists,
		CheckIdentityStatus: c.CheckUserStatus,
		CheckPausePayment:   c.CheckPausePayment,
		CheckHasPermission:  c.CheckUserHasPermission,
		CheckBadgeStatus:    c.CheckBadgeStatus,
		AllowedRoles:        append([]string(nil), c.AllowedRoles...),
	}
}

// Settings converts the export configuration, sharing the access toggles with the evaluator.
// Lifetimes below the minimum, zero and negative included, are clamped by CacheLifetime.
func (c FallbackConfig) Settings(accessSettings access.Settings) fallback.Settings {
	return fallback.Settings{
		Access:         accessSettings,
		CacheEnabled:   c.CacheEnabled,
		Lifetime:       time.Duration(c.CacheMaxAge) * time.Second,
		IncludeNames:   c.IncludeUserNames,
		IncludeContact: c.IncludeUserEmail,
		AllowedCodes:   fallback.ParseAllowList(c.LimitPermissions),
	}
}
