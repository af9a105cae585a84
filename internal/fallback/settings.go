// Package fallback builds and caches the offline export consumed by access terminals.
package fallback

import (
	"regexp"
	"time"

	"github.com/openmakers/badgegate/internal/access"
	"github.com/openmakers/badgegate/internal/catalog"
)

const (
	// MinLifetime is the shortest cache lifetime honoured regardless of configuration.
	MinLifetime = 60 * time.Second
	// DefaultLifetime is the lifetime of DefaultSettings and the configuration default.
	DefaultLifetime = 900 * time.Second
)

var allowListSeparators = regexp.MustCompile(`[\r\n,]+`)

// Settings controls what the export contains and how long it is cached.
type Settings struct {
	// Access carries the eligibility toggles shared with the live evaluator.
	Access access.Settings

	CacheEnabled   bool
	Lifetime       time.Duration
	IncludeNames   bool
	IncludeContact bool
	// AllowedCodes restricts exported badges to these normalized codes; empty exports all.
	AllowedCodes []string
}

// DefaultSettings returns caching enabled, the default lifetime and no personal fields.
func DefaultSettings() Settings {
	return Settings{
		Access:       access.DefaultSettings(),
		CacheEnabled: true,
		Lifetime:     DefaultLifetime,
	}
}

// CacheLifetime returns the configured lifetime clamped to MinLifetime.
func (s Settings) CacheLifetime() time.Duration {
	if s.Lifetime < MinLifetime {
		return MinLifetime
	}
	return s.Lifetime
}

// ParseAllowList splits a comma or newline separated list of badge codes and normalizes each one,
// dropping entries that normalize to nothing.
func ParseAllowList(raw string) []string {
	var codes []string
	seen := map[string]struct{}{}
	for _, fragment := range allowListSeparators.Split(raw, -1) {
		code := catalog.NormalizeCode(fragment)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}

func (s Settings) allowSet() map[string]struct{} {
	if len(s.AllowedCodes) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(s.AllowedCodes))
	for _, code := range s.AllowedCodes {
		if code = catalog.NormalizeCode(code); code != "" {
			set[code] = struct{}{}
		}
	}
	return set
}
