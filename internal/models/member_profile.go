package models

import "time"

// ProfileTypeMain is the profile bundle that may carry a fallback card serial.
const ProfileTypeMain = "main"

// MemberProfile is a secondary record owned by a member. Older member records keep their
// card serial here instead of on the member itself.
type MemberProfile struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	MemberID   uint      `gorm:"not null;index" json:"member_id"`
	Type       string    `gorm:"size:32;not null;index" json:"type"`
	CardSerial string    `gorm:"index" json:"card_serial"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
