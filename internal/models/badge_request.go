package models

import "time"

// BadgeRequestStatusActive marks a badge request that currently grants its badge.
const BadgeRequestStatusActive = "active"

// BadgeRequest links a member to a badge. Several requests may exist for the same pair;
// only their status is significant.
type BadgeRequest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MemberID  uint      `gorm:"not null;index" json:"member_id"`
	BadgeID   uint      `gorm:"not null;index" json:"badge_id"`
	Status    string    `gorm:"size:32;not null;index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
