// Package catalog exposes the badge (permission) catalog and its code helpers.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/openmakers/badgegate/internal/models"
)

// ErrNotFound is returned when no badge matches a requested code.
var ErrNotFound = errors.New("catalog: badge not found")

// Catalog lists badges and resolves them by code. Listings are memoized per instance for the
// configured lifetime; a zero lifetime disables memoization.
type Catalog struct {
	db      *gorm.DB
	memoTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	memo     []models.Badge
	loadedAt time.Time
}

// Option customises a Catalog.
type Option func(*Catalog)

// WithMemoTTL sets how long a loaded listing is reused.
func WithMemoTTL(ttl time.Duration) Option {
	return func(c *Catalog) {
		if ttl < 0 {
			ttl = 0
		}
		c.memoTTL = ttl
	}
}

// WithClock overrides the time source used for memo expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a Catalog backed by the badges table.
func New(db *gorm.DB, opts ...Option) (*Catalog, error) {
	if db == nil {
		return nil, errors.New("catalog: db is required")
	}
	c := &Catalog{
		db:      db,
		memoTTL: time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List returns every badge ordered by id. The returned slice is owned by the caller.
func (c *Catalog) List(ctx context.Context) ([]models.Badge, error) {
	badges, err := c.load(ctx, false)
	if err != nil {
		return nil, err
	}
	return append([]models.Badge(nil), badges...), nil
}

// ListFresh reads every badge from the database, ignoring and replacing the memoized listing.
func (c *Catalog) ListFresh(ctx context.Context) ([]models.Badge, error) {
	badges, err := c.load(ctx, true)
	if err != nil {
		return nil, err
	}
	return append([]models.Badge(nil), badges...), nil
}

// Lookup resolves a badge by code. Codes are compared lower-cased and trimmed; the lowest id wins
// when several badges share a code.
func (c *Catalog) Lookup(ctx context.Context, code string) (*models.Badge, error) {
	key := LookupKey(code)
	if key == "" {
		return nil, ErrNotFound
	}

	badges, err := c.load(ctx, false)
	if err != nil {
		return nil, err
	}

	for i := range badges {
		if LookupKey(badges[i].TextID) == key {
			badge := badges[i]
			return &badge, nil
		}
	}
	return nil, ErrNotFound
}

// Reset drops the memoized listing.
func (c *Catalog) Reset() {
	c.mu.Lock()
	c.memo = nil
	c.loadedAt = time.Time{}
	c.mu.Unlock()
}

func (c *Catalog) load(ctx context.Context, bypassMemo bool) ([]models.Badge, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !bypassMemo && c.memoTTL > 0 && c.memo != nil && c.now().Sub(c.loadedAt) < c.memoTTL {
		return c.memo, nil
	}

	var badges []models.Badge
	if err := c.db.WithContext(ctx).Order("id ASC").Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("catalog: list badges: %w", err)
	}
	if badges == nil {
		badges = []models.Badge{}
	}

	if c.memoTTL > 0 {
		c.memo = badges
		c.loadedAt = c.now()
	}
	return badges, nil
}
