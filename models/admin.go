package models

import (
	"time"

	"gorm.io/gorm"
)

// Admin permissions.
const (
	PermManageCounselors = "manage_counselors"
	PermViewAnalytics    = "view_analytics"
	PermManageAdmins     = "manage_admins"
)

// Admin statuses. The first admin bootstraps straight to active; every
// later registration lands in pending until an existing admin approves it.
const (
	AdminPending = "pending"
	AdminActive  = "active"
)

type Admin struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AccountID   uint      `gorm:"uniqueIndex;not null" json:"account_id"`
	Status      string    `gorm:"type:enum('pending','active');default:'pending'" json:"status"`
	Permissions []string  `gorm:"serializer:json" json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`

	Account *Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}

func (Admin) TableName() string {
	return "admins"
}

// HasPermission reports whether the admin is active and holds the permission.
func (a *Admin) HasPermission(perm string) bool {
	if a.Status != AdminActive {
		return false
	}
	for _, p := range a.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// GetAdminByAccountID retrieves an admin profile by owning account
func GetAdminByAccountID(db *gorm.DB, accountID uint) (*Admin, error) {
	var admin Admin
	if err := db.Where("account_id = ?", accountID).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}
