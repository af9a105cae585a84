package models

// AccessLog records one access decision. Rows are append-only.
type AccessLog struct {
	BaseModel

	MemberID *uint   `gorm:"index" json:"member_id"`
	Member   *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	BadgeID  *uint   `gorm:"index" json:"badge_id"`
	Badge    *Badge  `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	Result   bool    `gorm:"not null;index" json:"result"`
	Note     string  `gorm:"type:text" json:"note"`
	Source   string  `gorm:"size:128;index" json:"source"`
	Method   string  `gorm:"size:128" json:"method"`
}
