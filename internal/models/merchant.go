package models

import (
	"time"
)

const (
	MerchantStatusActive   = "active"
	MerchantStatusInactive = "inactive"
)

type Merchant struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	UserID       uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Code         string `gorm:"uniqueIndex;not null" json:"code"`
	BusinessName string `gorm:"not null" json:"business_name"`
	BusinessType string `json:"business_type,omitempty"`
	Status       string `gorm:"default:'active'" json:"status"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
