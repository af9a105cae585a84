// Package assignments answers questions about badge requests linking members to badges.
package assignments

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/openmakers/badgegate/internal/models"
)

// Pair is a (member, badge) assignment.
type Pair struct {
	MemberID uint
	BadgeID  uint
}

// Store queries badge requests.
type Store struct {
	db *gorm.DB
}

// NewStore constructs a Store using the provided database handle.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("assignment store: db is required")
	}
	return &Store{db: db}, nil
}

// Exists reports whether at least one badge request links the member to the badge. With activeOnly
// only requests in the active status count.
func (s *Store) Exists(ctx context.Context, memberID, badgeID uint, activeOnly bool) (bool, error) {
	query := s.db.WithContext(ensureContext(ctx)).
		Model(&models.BadgeRequest{}).
		Where("member_id = ? AND badge_id = ?", memberID, badgeID)
	if activeOnly {
		query = query.Where("status = ?", models.BadgeRequestStatusActive)
	}

	var count int64
	if err := query.Limit(1).Count(&count).Error; err != nil {
		return false, fmt.Errorf("assignment store: check assignment: %w", err)
	}
	return count > 0, nil
}

// ListForExport returns the member/badge pairs of every badge request targeting one of the badges,
// in request id order. Duplicate pairs are preserved.
func (s *Store) ListForExport(ctx context.Context, badgeIDs []uint, activeOnly bool) ([]Pair, error) {
	pairs := []Pair{}
	if len(badgeIDs) == 0 {
		return pairs, nil
	}

	query := s.db.WithContext(ensureContext(ctx)).
		Model(&models.BadgeRequest{}).
		Select("member_id", "badge_id").
		Where("badge_id IN ?", badgeIDs)
	if activeOnly {
		query = query.Where("status = ?", models.BadgeRequestStatusActive)
	}

	if err := query.Order("id ASC").Scan(&pairs).Error; err != nil {
		return nil, fmt.Errorf("assignment store: list assignments: %w", err)
	}
	return pairs, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
