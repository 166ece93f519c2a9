package models

import (
	"time"

	"github.com/anirudh-svg/Peer-Lift/database"

	"golang.org/x/crypto/bcrypt"
)

// Account is the authenticated identity behind counselors and admins.
// Anonymous visitors never get an account.
type Account struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"size:255;not null"` // Password won't be included in JSON responses
	Name      string    `json:"name" gorm:"size:100;not null"`
	Role      string    `json:"role" gorm:"type:enum('counselor','admin');default:'counselor'"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// HashPassword handles password hashing before saving to database
func (a *Account) HashPassword() error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.Password = string(hashedPassword)
	return nil
}

// ValidatePassword checks if the provided password matches the hashed password
func (a *Account) ValidatePassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password))
	return err == nil
}

// GetAccountByEmail retrieves an active account by email
func GetAccountByEmail(email string) (*Account, error) {
	var account Account
	result := database.DB.Where("email = ? AND is_active = ?", email, true).First(&account)
	if result.Error != nil {
		return nil, result.Error
	}
	return &account, nil
}
