package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openmakers/badgegate/internal/models"
	"github.com/openmakers/badgegate/pkg/response"
)

// BadgeLister lists the badge catalog.
type BadgeLister interface {
	List(ctx context.Context) ([]models.Badge, error)
}

type permissionEntry struct {
	BadgeName    string `json:"badge_name"`
	PermissionID string `json:"permission_id"`
}

// PermissionHandler lists the permissions terminals may ask for.
type PermissionHandler struct {
	badges   BadgeLister
	reporter ErrorReporter
}

// NewPermissionHandler constructs a PermissionHandler. The reporter may be nil.
func NewPermissionHandler(badges BadgeLister, reporter ErrorReporter) (*PermissionHandler, error) {
	if badges == nil {
		return nil, errors.New("permission handler: badge lister is required")
	}
	return &PermissionHandler{badges: badges, reporter: reporter}, nil
}

// GET /api/permissions
func (h *PermissionHandler) List(c *gin.Context) {
	badges, err := h.badges.List(requestContext(c))
	if err != nil {
		if h.reporter != nil {
			h.reporter.Report(requestContext(c), "permissions", err)
		}
		response.Failure(c, http.StatusInternalServerError, InternalErrorMessage)
		return
	}
	if len(badges) == 0 {
		response.Failure(c, http.StatusNotFound, "No permissions found.")
		return
	}

	entries := make([]permissionEntry, 0, len(badges))
	for _, badge := range badges {
		entries = append(entries, permissionEntry{
			BadgeName:    badge.Name,
			PermissionID: badge.TextID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"permissions": entries})
}
