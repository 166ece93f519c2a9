package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultMaxConcurrentSessions is the per-counselor capacity assigned at
// profile creation.
const DefaultMaxConcurrentSessions = 3

// Counselor is a volunteer profile attached to an account. Profiles start
// unverified and cannot claim sessions until an admin verifies them.
type Counselor struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	AccountID             uint      `gorm:"uniqueIndex;not null" json:"account_id"`
	NGOName               string    `gorm:"size:150;not null" json:"ngo_name"`
	IsVerified            bool      `gorm:"default:false" json:"is_verified"`
	IsOnline              bool      `gorm:"default:false;index" json:"is_online"`
	Specializations       []string  `gorm:"serializer:json" json:"specializations"`
	MaxConcurrentSessions int       `gorm:"default:3" json:"max_concurrent_sessions"`
	VerificationDocument  *string   `gorm:"size:255" json:"verification_document,omitempty"` // S3 object key
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`

	Account *Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}

func (Counselor) TableName() string {
	return "counselors"
}

// GetCounselorByAccountID retrieves a counselor profile by owning account
func GetCounselorByAccountID(db *gorm.DB, accountID uint) (*Counselor, error) {
	var counselor Counselor
	if err := db.Where("account_id = ?", accountID).First(&counselor).Error; err != nil {
		return nil, err
	}
	return &counselor, nil
}

// ActiveSessionCount returns the number of sessions the counselor currently
// holds. Derived from session status so it can never drift from reality.
func (c *Counselor) ActiveSessionCount(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&ChatSession{}).
		Where("counselor_id = ? AND status = ?", c.AccountID, SessionActive).
		Count(&count).Error
	return count, err
}
