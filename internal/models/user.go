package models

import (
	"time"
)

// KYCTier is the verification level gating ceilings, 0 (unverified) to 3 (fully verified).
type KYCTier int

const (
	KYCTier0 KYCTier = iota
	KYCTier1
	KYCTier2
	KYCTier3
)

// KYCTierCount is the number of tiers; limit tables are arrays of this length.
const KYCTierCount = 4

func (t KYCTier) Valid() bool {
	return t >= KYCTier0 && t <= KYCTier3
}

// User is the account holder as seen by the ledger. Identity and login live elsewhere.
type User struct {
	ID        uint    `gorm:"primarykey" json:"id"`
	Phone     string  `gorm:"uniqueIndex;not null" json:"phone"`
	Name      string  `json:"name"`
	Country   string  `gorm:"not null;default:'CM'" json:"country"`
	KYCTier   KYCTier `gorm:"not null;default:0" json:"kyc_tier"`
	Role      string  `gorm:"default:'user'" json:"role"`
	Status    string  `gorm:"default:'active'" json:"status"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
