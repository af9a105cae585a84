package database

import (
	"gorm.io/gorm"

	"github.com/openmakers/badgegate/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Member{},
		&models.MemberProfile{},
		&models.Badge{},
		&models.BadgeRequest{},
		&models.AccessLog{},
		&models.CacheEntry{},
	)
}
