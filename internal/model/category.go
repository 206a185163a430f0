package model

import (
	"time"

	"gorm.io/gorm"
)

// Category represents the menu category model stored in the database
type Category struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	CategoryID string         `json:"category_id" gorm:"type:varchar(100);uniqueIndex"`
	BrandID    string         `json:"brand_id" gorm:"type:varchar(100);index;not null;uniqueIndex:idx_brand_category_name"`
	Name       string         `json:"category" gorm:"type:varchar(100);uniqueIndex:idx_brand_category_name"` // Unique per brand
	CreatedBy  string         `json:"created_by" gorm:"type:varchar(100)"`
	UpdatedBy  string         `json:"updated_by,omitempty" gorm:"type:varchar(100)"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}
