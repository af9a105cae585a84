// Package identity resolves members by their external identifiers.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/openmakers/badgegate/internal/models"
)

// ErrNotFound is returned when no member matches the supplied identifier.
var ErrNotFound = errors.New("identity: member not found")

// Repository looks members up through GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a Repository using the provided database handle.
func NewRepository(db *gorm.DB) (*Repository, error) {
	if db == nil {
		return nil, errors.New("identity repository: db is required")
	}
	return &Repository{db: db}, nil
}

// FindByUUID returns the member with the given external identifier.
func (r *Repository) FindByUUID(ctx context.Context, uuid string) (*models.Member, error) {
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return nil, ErrNotFound
	}
	return r.first(ensureContext(ctx), "uuid = ?", uuid)
}

// FindBySerial returns the member carrying the card serial, falling back to the serial stored on
// the member's main profile.
func (r *Repository) FindBySerial(ctx context.Context, serial string) (*models.Member, error) {
	ctx = ensureContext(ctx)

	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, ErrNotFound
	}

	member, err := r.first(ctx, "card_serial = ?", serial)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return member, err
	}

	var profile models.MemberProfile
	err = r.db.WithContext(ctx).
		Where("type = ? AND card_serial = ?", models.ProfileTypeMain, serial).
		Order("id ASC").
		Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("identity repository: find profile by serial: %w", err)
	}

	return r.first(ctx, "id = ?", profile.MemberID)
}

// FindByEmail returns the member with the given contact address, compared case-insensitively.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrNotFound
	}
	return r.first(ensureContext(ctx), "LOWER(email) = ?", email)
}

// ListActive returns every active member ordered by id.
func (r *Repository) ListActive(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	if err := r.db.WithContext(ensureContext(ctx)).
		Where("active = ?", true).
		Order("id ASC").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("identity repository: list active members: %w", err)
	}
	return members, nil
}

// ProfileSerials resolves, for each member id, the first non-empty serial stored on one of the
// member's main profiles. Members without such a serial are absent from the result.
func (r *Repository) ProfileSerials(ctx context.Context, memberIDs []uint) (map[uint]string, error) {
	serials := make(map[uint]string)
	if len(memberIDs) == 0 {
		return serials, nil
	}

	var profiles []models.MemberProfile
	if err := r.db.WithContext(ensureContext(ctx)).
		Where("type = ? AND member_id IN ?", models.ProfileTypeMain, memberIDs).
		Order("id ASC").
		Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("identity repository: list profile serials: %w", err)
	}

	for _, profile := range profiles {
		if _, seen := serials[profile.MemberID]; seen {
			continue
		}
		if serial := strings.TrimSpace(profile.CardSerial); serial != "" {
			serials[profile.MemberID] = serial
		}
	}
	return serials, nil
}

func (r *Repository) first(ctx context.Context, query string, args ...any) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).Where(query, args...).Order("id ASC").Take(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("identity repository: find member: %w", err)
	}
	return &member, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
