package model

import (
	"time"

	"gorm.io/gorm"
)

// InvoiceItem is a single line of a sold invoice.
type InvoiceItem struct {
	ItemName  string  `json:"item_name"`
	ItemPrice float64 `json:"item_price"`
	Quantity  int     `json:"item_quantity"`
}

// SoldInvoice represents a finalized sale stored in the database
type SoldInvoice struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	InvoiceID     string         `json:"invoice_id" gorm:"type:varchar(100);uniqueIndex"`
	BrandID       string         `json:"brand_id" gorm:"type:varchar(100);index;not null"`
	ServedBy      string         `json:"served_by" gorm:"type:varchar(100);index"`
	Items         []InvoiceItem  `json:"items" gorm:"serializer:json;type:text"`
	TotalBill     float64        `json:"total_bill"`
	TotalDiscount float64        `json:"total_discount"`
	MemberMobile  string         `json:"member,omitempty" gorm:"type:varchar(20);index"`
	TableName     string         `json:"table_name" gorm:"type:varchar(100)"`
	CreatedBy     string         `json:"created_by" gorm:"type:varchar(100)"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}
