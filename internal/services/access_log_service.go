package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/openmakers/badgegate/internal/access"
	"github.com/openmakers/badgegate/internal/models"
)

// AccessLogFilters encapsulates optional filters when querying access logs.
type AccessLogFilters struct {
	MemberID *uint
	BadgeID  *uint
	Result   *bool
	Source   string
	Since    *time.Time
	Until    *time.Time
}

// AccessLogListOptions controls pagination and filtering for access log queries.
type AccessLogListOptions struct {
	Page     int
	PageSize int
	Filters  AccessLogFilters
}

// AccessLogService persists access decisions and lists them for administrators.
type AccessLogService struct {
	db *gorm.DB
}

// NewAccessLogService constructs an AccessLogService using the provided database handle.
func NewAccessLogService(db *gorm.DB) (*AccessLogService, error) {
	if db == nil {
		return nil, errors.New("access log service: db is required")
	}
	return &AccessLogService{db: db}, nil
}

// LogDecision appends one decision to the access log.
func (s *AccessLogService) LogDecision(ctx context.Context, entry access.DecisionEntry) error {
	ctx = ensureContext(ctx)

	log := models.AccessLog{
		MemberID: entry.MemberID,
		BadgeID:  entry.BadgeID,
		Result:   entry.Result,
		Note:     entry.Note,
		Source:   strings.TrimSpace(entry.Source),
		Method:   strings.TrimSpace(entry.Method),
	}

	if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
		return fmt.Errorf("access log service: create log: %w", err)
	}
	return nil
}

// List returns paginated access logs ordered by creation time descending.
func (s *AccessLogService) List(ctx context.Context, opts AccessLogListOptions) ([]models.AccessLog, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	var (
		results []models.AccessLog
		total   int64
	)

	query := s.db.WithContext(ctx).Model(&models.AccessLog{})
	query = applyAccessLogFilters(query, opts.Filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("access log service: count logs: %w", err)
	}

	if err := query.
		Preload("Member").
		Preload("Badge").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("access log service: list logs: %w", err)
	}

	return results, total, nil
}

func applyAccessLogFilters(query *gorm.DB, filters AccessLogFilters) *gorm.DB {
	if filters.MemberID != nil {
		query = query.Where("member_id = ?", *filters.MemberID)
	}
	if filters.BadgeID != nil {
		query = query.Where("badge_id = ?", *filters.BadgeID)
	}
	if filters.Result != nil {
		query = query.Where("result = ?", *filters.Result)
	}
	if source := strings.TrimSpace(filters.Source); source != "" {
		query = query.Where("source = ?", source)
	}
	if filters.Since != nil {
		query = query.Where("created_at >= ?", *filters.Since)
	}
	if filters.Until != nil {
		query = query.Where("created_at <= ?", *filters.Until)
	}
	return query
}
