package model

import (
	"time"

	"gorm.io/gorm"
)

// BrandLogo is the stored asset reference for a brand's logo.
type BrandLogo struct {
	ID  string `json:"id" gorm:"type:varchar(255)"`
	URL string `json:"url" gorm:"type:varchar(512)"`
}

// Address locates a brand.
type Address struct {
	Location    string `json:"location" gorm:"type:varchar(200)"`
	SubDistrict string `json:"sub_district" gorm:"type:varchar(100)"`
	District    string `json:"district" gorm:"type:varchar(100)"`
}

// Contact holds a brand's phone numbers.
type Contact struct {
	Mobile1 string `json:"mobile1" gorm:"type:varchar(20)"`
	Mobile2 string `json:"mobile2" gorm:"type:varchar(20)"`
}

// SubscriptionInfo tracks a brand's subscription state. Status flips
// to false exactly once when EndTime passes.
type SubscriptionInfo struct {
	Status                bool       `json:"status" gorm:"default:false"`
	PreviousPaymentAmount float64    `json:"previous_payment_amount"`
	PreviousPaymentTime   *time.Time `json:"previous_payment_time"`
	EndTime               *time.Time `json:"end_time"`
}

// SelectedPlan is the plan a brand is currently subscribed to.
type SelectedPlan struct {
	ID   string `json:"id" gorm:"type:varchar(100)"`
	Name string `json:"name" gorm:"type:varchar(100)"`
}

// Brand represents the tenant model stored in the database
type Brand struct {
	ID               uint             `json:"id" gorm:"primaryKey"`
	BrandID          string           `json:"brand_id" gorm:"type:varchar(100);uniqueIndex"`
	Name             string           `json:"brand_name" gorm:"type:varchar(100);index"`
	BrandLogo        BrandLogo        `json:"brand_logo" gorm:"embedded;embeddedPrefix:logo_"`
	Address          Address          `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	Contact          Contact          `json:"contact" gorm:"embedded;embeddedPrefix:contact_"`
	SubscriptionInfo SubscriptionInfo `json:"subscription_info" gorm:"embedded;embeddedPrefix:sub_"`
	SelectedPlan     SelectedPlan     `json:"selected_plan" gorm:"embedded;embeddedPrefix:plan_"`
	CreatedBy        string           `json:"created_by" gorm:"type:varchar(100)"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `json:"-" gorm:"index"`
}
