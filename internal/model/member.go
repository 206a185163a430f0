package model

import (
	"time"

	"gorm.io/gorm"
)

// Member represents the loyalty member model stored in the database
type Member struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	MemberID      string         `json:"member_id" gorm:"type:varchar(100);uniqueIndex"`
	BrandID       string         `json:"brand_id" gorm:"type:varchar(100);index;not null;uniqueIndex:idx_brand_member_mobile"`
	Name          string         `json:"name" gorm:"type:varchar(100);index"`
	Mobile        string         `json:"mobile" gorm:"type:varchar(20);uniqueIndex:idx_brand_member_mobile"` // Unique per brand
	DiscountValue float64        `json:"discount_value" gorm:"default:10"`
	TotalDiscount float64        `json:"total_discount"`
	TotalSpent    float64        `json:"total_spent"`
	CreatedBy     string         `json:"created_by" gorm:"type:varchar(100)"`
	UpdatedBy     string         `json:"updated_by,omitempty" gorm:"type:varchar(100)"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}
