package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Access override values stored on Member.AccessOverride.
const (
	OverrideAllow = "allow"
	OverrideDeny  = "deny"
)

// Member is a person whose card or account may be used at an access terminal.
type Member struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	UUID  string `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	Email string `gorm:"index" json:"email"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	CardSerial string                      `gorm:"index" json:"card_serial"`
	Roles      datatypes.JSONSlice[string] `json:"roles"`

	ChargebeePause bool   `gorm:"not null" json:"chargebee_pause"`
	ManualPause    bool   `gorm:"not null" json:"manual_pause"`
	PaymentFailed  bool   `gorm:"not null" json:"payment_failed"`
	AccessOverride string `gorm:"size:16" json:"access_override"`

	Active bool `gorm:"not null;index" json:"active"`

	Profiles []MemberProfile `gorm:"foreignKey:MemberID" json:"profiles,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an external identifier when none was supplied.
func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(m.UUID) == "" {
		m.UUID = uuid.NewString()
	}
	return nil
}

// HasRole reports whether the member carries the given role.
func (m *Member) HasRole(role string) bool {
	if m == nil {
		return false
	}
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// OverrideDenied reports whether the access override explicitly denies entry.
func (m *Member) OverrideDenied() bool {
	if m == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(m.AccessOverride), OverrideDeny)
}
