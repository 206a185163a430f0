package model

import (
	"time"

	"gorm.io/gorm"
)

// MenuItem represents the menu item model stored in the database
type MenuItem struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	ItemID    string         `json:"item_id" gorm:"type:varchar(100);uniqueIndex"`
	BrandID   string         `json:"brand_id" gorm:"type:varchar(100);index;not null;uniqueIndex:idx_brand_item_name"`
	Name      string         `json:"item_name" gorm:"type:varchar(100);uniqueIndex:idx_brand_item_name"` // Unique per brand
	Category  string         `json:"category" gorm:"type:varchar(100);index"`                            // Must exist within the brand
	Price     float64        `json:"item_price"`
	Discount  bool           `json:"discount" gorm:"default:true"`
	CreatedBy string         `json:"created_by" gorm:"type:varchar(100)"`
	UpdatedBy string         `json:"updated_by,omitempty" gorm:"type:varchar(100)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
