package model

import (
	"time"

	"gorm.io/gorm"
)

// Staff represents the serving staff model stored in the database.
// Invoices reference staff by name in their served_by field.
type Staff struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	StaffID   string         `json:"staff_id" gorm:"type:varchar(100);uniqueIndex"`
	BrandID   string         `json:"brand_id" gorm:"type:varchar(100);index;not null;uniqueIndex:idx_brand_staff_name"`
	Name      string         `json:"name" gorm:"type:varchar(100);uniqueIndex:idx_brand_staff_name"` // Unique per brand
	CreatedBy string         `json:"created_by" gorm:"type:varchar(100)"`
	UpdatedBy string         `json:"updated_by,omitempty" gorm:"type:varchar(100)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
