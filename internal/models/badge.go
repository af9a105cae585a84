package models

import "time"

// Badge is a permission catalog entry. TextID holds the raw machine code used by terminals.
type Badge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	TextID    string    `gorm:"index" json:"text_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
