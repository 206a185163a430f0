package model

import (
	"time"

	"gorm.io/gorm"
)

// Plan represents a subscription plan. Plans are global, not
// tenant-scoped.
type Plan struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	PlanID      string         `json:"plan_id" gorm:"type:varchar(100);uniqueIndex"`
	Name        string         `json:"plan_name" gorm:"type:varchar(100);uniqueIndex"`
	Price       float64        `json:"price"`
	UserLimit   int            `json:"user_limit"`
	Duration    string         `json:"duration" gorm:"type:varchar(50);default:'monthly'"`
	Currency    string         `json:"currency" gorm:"type:varchar(10);default:'BDT'"`
	Description string         `json:"description" gorm:"type:text"`
	Features    []string       `json:"features" gorm:"serializer:json;type:text"`
	Limitations []string       `json:"limitations" gorm:"serializer:json;type:text"`
	Terms       []string       `json:"terms" gorm:"serializer:json;type:text"`
	CreatedBy   string         `json:"created_by" gorm:"type:varchar(100)"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// PlanPurchase journals a plan purchase for audit.
type PlanPurchase struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(100);index"`
	BrandID   string    `json:"brand_id" gorm:"type:varchar(100);index"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
