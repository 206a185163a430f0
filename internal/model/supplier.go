package model

import (
	"time"

	"gorm.io/gorm"
)

// Supplier represents the supplier model stored in the database
type Supplier struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	SupplierID string         `json:"supplier_id" gorm:"type:varchar(100);uniqueIndex"`
	BrandID    string         `json:"brand_id" gorm:"type:varchar(100);index;not null;uniqueIndex:idx_brand_supplier_name"`
	Name       string         `json:"supplier_name" gorm:"type:varchar(100);uniqueIndex:idx_brand_supplier_name"` // Unique per brand
	Mobile     string         `json:"mobile" gorm:"type:varchar(20)"`
	Address    string         `json:"address" gorm:"type:varchar(200)"`
	CreatedBy  string         `json:"created_by" gorm:"type:varchar(100)"`
	UpdatedBy  string         `json:"updated_by,omitempty" gorm:"type:varchar(100)"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}
