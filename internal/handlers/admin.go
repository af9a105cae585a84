package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openmakers/badgegate/internal/access"
	"github.com/openmakers/badgegate/internal/identity"
	"github.com/openmakers/badgegate/internal/links"
	"github.com/openmakers/badgegate/internal/middleware"
	"github.com/openmakers/badgegate/internal/models"
	"github.com/openmakers/badgegate/internal/services"
	appErrors "github.com/openmakers/badgegate/pkg/errors"
	"github.com/openmakers/badgegate/pkg/logger"
	"github.com/openmakers/badgegate/pkg/response"
)

const defaultAccessLogPageSize = 50

// AccessLogLister pages through recorded decisions.
type AccessLogLister interface {
	List(ctx context.Context, opts services.AccessLogListOptions) ([]models.AccessLog, int64, error)
}

// FallbackController manages the cached fallback snapshot.
type FallbackController interface {
	Enabled() bool
	Warm(ctx context.Context) error
	Invalidate(ctx context.Context) error
}

// StatusSummarizer explains a member's access readiness.
type StatusSummarizer interface {
	Summarize(ctx context.Context, member *models.Member) (access.StatusReport, error)
}

// LinkSource renders admin link groups for a member.
type LinkSource interface {
	Groups(ctx context.Context, member *models.Member, viewer links.Viewer) []links.Group
}

// AdminDeps groups the collaborators of the admin API.
type AdminDeps struct {
	AccessLogs AccessLogLister
	Fallback   FallbackController
	Members    MemberLookup
	Status     StatusSummarizer
	Links      LinkSource
}

// AdminHandler serves the administrator API.
type AdminHandler struct {
	logs     AccessLogLister
	fallback FallbackController
	members  MemberLookup
	status   StatusSummarizer
	links    LinkSource
	log      *zap.Logger
}

// NewAdminHandler constructs an AdminHandler. Links are optional.
func NewAdminHandler(deps AdminDeps) (*AdminHandler, error) {
	switch {
	case deps.AccessLogs == nil:
		return nil, errors.New("admin handler: access log lister is required")
	case deps.Fallback == nil:
		return nil, errors.New("admin handler: fallback controller is required")
	case deps.Members == nil:
		return nil, errors.New("admin handler: member lookup is required")
	case deps.Status == nil:
		return nil, errors.New("admin handler: status summarizer is required")
	}
	return &AdminHandler{
		logs:     deps.AccessLogs,
		fallback: deps.Fallback,
		members:  deps.Members,
		status:   deps.Status,
		links:    deps.Links,
		log:      logger.WithModule("admin"),
	}, nil
}

type accessLogQuery struct {
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=200"`
	MemberID uint   `form:"member_id"`
	BadgeID  uint   `form:"badge_id"`
	Result   string `form:"result" validate:"omitempty,oneof=granted denied true false"`
	Source   string `form:"source" validate:"max=128"`
	Since    string `form:"since" validate:"rfc3339"`
	Until    string `form:"until" validate:"rfc3339"`
}

func (q accessLogQuery) options() services.AccessLogListOptions {
	opts := services.AccessLogListOptions{
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultAccessLogPageSize
	}

	if q.MemberID > 0 {
		id := q.MemberID
		opts.Filters.MemberID = &id
	}
	if q.BadgeID > 0 {
		id := q.BadgeID
		opts.Filters.BadgeID = &id
	}
	switch q.Result {
	case "granted", "true":
		allowed := true
		opts.Filters.Result = &allowed
	case "denied", "false":
		allowed := false
		opts.Filters.Result = &allowed
	}
	opts.Filters.Source = strings.TrimSpace(q.Source)
	opts.Filters.Since = parseTimestamp(q.Since)
	opts.Filters.Until = parseTimestamp(q.Until)
	return opts
}

func parseTimestamp(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}

// GET /api/admin/access-logs
func (h *AdminHandler) ListAccessLogs(c *gin.Context) {
	var query accessLogQuery
	if !bindQuery(c, &query) {
		return
	}

	opts := query.options()
	logs, total, err := h.logs.List(requestContext(c), opts)
	if err != nil {
		h.log.Error("list access logs", zap.Error(err))
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, logs, response.NewMeta(opts.Page, opts.PageSize, total))
}

// POST /api/admin/fallback/invalidate
func (h *AdminHandler) InvalidateFallback(c *gin.Context) {
	if err := h.fallback.Invalidate(requestContext(c)); err != nil {
		h.log.Error("invalidate fallback snapshot", zap.Error(err))
		response.Error(c, appErrors.ErrInternalServer)
		return
	}
	h.log.Info("fallback snapshot invalidated", zap.String("admin_id", adminID(c)))
	response.Success(c, http.StatusOK, gin.H{"invalidated": true})
}

// POST /api/admin/fallback/warm
func (h *AdminHandler) WarmFallback(c *gin.Context) {
	if !h.fallback.Enabled() {
		response.Success(c, http.StatusOK, gin.H{"warmed": false, "cache_enabled": false})
		return
	}
	if err := h.fallback.Warm(requestContext(c)); err != nil {
		h.log.Error("warm fallback snapshot", zap.Error(err))
		response.Error(c, appErrors.ErrInternalServer)
		return
	}
	h.log.Info("fallback snapshot warmed", zap.String("admin_id", adminID(c)))
	response.Success(c, http.StatusOK, gin.H{"warmed": true, "cache_enabled": true})
}

type memberStatusView struct {
	Member memberInfo          `json:"member"`
	Report access.StatusReport `json:"report"`
	Links  []links.Group       `json:"links"`
}

// GET /api/admin/members/:uuid/status
func (h *AdminHandler) MemberStatus(c *gin.Context) {
	ctx := requestContext(c)

	member, err := h.members.FindByUUID(ctx, c.Param("uuid"))
	switch {
	case errors.Is(err, identity.ErrNotFound):
		response.Error(c, appErrors.ErrNotFound)
		return
	case err != nil:
		h.log.Error("load member", zap.Error(err))
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	report, err := h.status.Summarize(ctx, member)
	if err != nil {
		h.log.Error("summarize member status", zap.Error(err))
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	view := memberStatusView{
		Member: newMemberInfo(member),
		Report: report,
		Links:  []links.Group{},
	}
	if h.links != nil {
		claims, _ := middleware.ClaimsFrom(c)
		if groups := h.links.Groups(ctx, member, claims); groups != nil {
			view.Links = groups
		}
	}

	response.Success(c, http.StatusOK, view)
}

func adminID(c *gin.Context) string {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return ""
	}
	return claims.AdminID
}
