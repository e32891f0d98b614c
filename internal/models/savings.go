package models

import "time"

const (
	SavingsStatusActive    = "active"
	SavingsStatusCompleted = "completed"
	SavingsStatusCancelled = "cancelled"
)

// SavingsGoal is a sub-ledger funded from the owner's wallet.
type SavingsGoal struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	UserID       uint       `gorm:"index;not null" json:"user_id"`
	WalletID     uint       `gorm:"index;not null" json:"wallet_id"`
	Name         string     `gorm:"not null" json:"name"`
	TargetAmount int64      `gorm:"not null;check:target_amount > 0" json:"target_amount"`
	Balance      int64      `gorm:"not null;default:0;check:balance >= 0" json:"balance"`
	Status       string     `gorm:"not null;default:'active'" json:"status"`
	Version      int64      `gorm:"not null;default:0" json:"-"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Reached reports whether the goal balance has met its target.
func (g *SavingsGoal) Reached() bool {
	return g.Balance >= g.TargetAmount
}
