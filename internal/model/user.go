package model

import (
	"time"

	"gorm.io/gorm"
)

// Avatar is the stored asset reference for a user's profile image.
type Avatar struct {
	ID  string `json:"id" gorm:"type:varchar(255)"`
	URL string `json:"url" gorm:"type:varchar(512)"`
}

// User represents the user model stored in the database
type User struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	UserID          string         `json:"user_id" gorm:"type:varchar(100);uniqueIndex"`
	Name            string         `json:"name" gorm:"type:varchar(100)"`
	Avatar          Avatar         `json:"avatar" gorm:"embedded;embeddedPrefix:avatar_"`
	BrandID         string         `json:"brand_id,omitempty" gorm:"type:varchar(100);index"` // Empty for super_admin
	Email           string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Username        string         `json:"username" gorm:"type:varchar(100);uniqueIndex"`
	Mobile          string         `json:"mobile" gorm:"type:varchar(20);uniqueIndex"`
	Password        string         `json:"-" gorm:"type:varchar(255)"`
	PasswordHistory []string       `json:"-" gorm:"serializer:json;type:text"` // Last three hashes, newest first
	Role            string         `json:"role" gorm:"type:varchar(20);index"`
	BannedUser      bool           `json:"banned_user" gorm:"default:false"`
	EmailVerified   bool           `json:"email_verified" gorm:"default:false"`
	CreatedBy       string         `json:"created_by" gorm:"type:varchar(100)"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}
