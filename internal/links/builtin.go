package links

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	iauth "github.com/openmakers/badgegate/internal/auth"
	"github.com/openmakers/badgegate/internal/models"
)

// Permissions gating the built-in links.
const (
	PermissionViewAccessLogs = iauth.PermissionViewAccessLogs
	PermissionManageFallback = iauth.PermissionManageFallback
)

// AccessControlProvider offers links into the admin API for a member: their access history and
// their current status report.
func AccessControlProvider(basePath string) Provider {
	basePath = strings.TrimRight(strings.TrimSpace(basePath), "/")

	return ProviderFunc{
		ID: "access_control",
		Fn: func(_ context.Context, member *models.Member, _ Viewer) ([]Link, error) {
			if member == nil {
				return nil, nil
			}

			history := url.Values{}
			history.Set("member_id", strconv.FormatUint(uint64(member.ID), 10))

			return []Link{
				{
					ID:          "access_control.history",
					Title:       "Access history",
					URL:         basePath + "/access-logs?" + history.Encode(),
					Description: "Every access decision recorded for this member.",
					Category:    "Access control",
					Weight:      0,
					Permissions: []string{PermissionViewAccessLogs},
				},
				{
					ID:          "access_control.status",
					Title:       "Access status",
					URL:         basePath + "/members/" + url.PathEscape(member.UUID) + "/status",
					Description: "Blocking conditions for this member.",
					Category:    "Access control",
					Weight:      -10,
				},
				{
					ID:          "access_control.fallback",
					Title:       "Rebuild fallback store",
					URL:         basePath + "/fallback/warm",
					Description: "Refresh the offline export after changing this member.",
					Category:    "Fallback",
					Weight:      0,
					GroupWeight: 10,
					Permissions: []string{PermissionManageFallback},
				},
			}, nil
		},
	}
}
