package model

import "time"

// RemovedUser records a revoked user id. Its presence invalidates the
// principal for every privileged request regardless of token validity,
// so deletions take effect before the access token expires.
type RemovedUser struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(100);index;not null"`
	BrandID   string    `json:"brand_id" gorm:"type:varchar(100);index"`
	CreatedBy string    `json:"created_by" gorm:"type:varchar(100)"`
	CreatedAt time.Time `json:"created_at"`
}
