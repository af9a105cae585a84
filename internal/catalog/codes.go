package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

var invalidCodeChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// LookupKey is the form used to match a requested code against catalog codes.
func LookupKey(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// NormalizeCode produces the export-safe form of a badge code: lower-cased, trimmed, runs of
// characters outside [a-z0-9._-] collapsed to "_" and leading or trailing "_" removed.
func NormalizeCode(code string) string {
	normalized := invalidCodeChars.ReplaceAllString(LookupKey(code), "_")
	return strings.Trim(normalized, "_")
}

// ToolID composes the export identifier for a badge.
func ToolID(code string, badgeID uint) string {
	id := strconv.FormatUint(uint64(badgeID), 10)
	if code == "" {
		return "perm." + id
	}
	return "perm." + code + "." + id
}
