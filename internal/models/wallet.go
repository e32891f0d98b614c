package models

import (
	"time"

	"gorm.io/gorm"
)

// Wallet statuses
const (
	WalletStatusActive    = "active"
	WalletStatusBlocked   = "blocked"
	WalletStatusSuspended = "suspended"
)

// MaxLockEscalationLevel is the level at which a PIN lockout becomes permanent.
const MaxLockEscalationLevel = 4

type Wallet struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	UserID       uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance      int64  `gorm:"not null;default:0;check:balance >= 0" json:"balance"`
	Currency     string `gorm:"not null;default:'XAF'" json:"currency"`
	Status       string `gorm:"not null;default:'active'" json:"status"`
	StatusReason string `gorm:"default:''" json:"status_reason,omitempty"`

	// PIN security state, owned by the pin guard.
	PinHash             *string    `json:"-"`
	FailedPinAttempts   int        `gorm:"not null;default:0" json:"failed_pin_attempts"`
	LockUntil           *time.Time `json:"lock_until,omitempty"`
	LockEscalationLevel int        `gorm:"not null;default:0" json:"lock_escalation_level"`

	// Version is bumped on every write; updates are conditional on it.
	Version int64 `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	// Wallets always open empty; money only enters through a deposit.
	w.Balance = 0
	if w.Status == "" {
		w.Status = WalletStatusActive
	}
	return nil
}

// HasPin reports whether a PIN has been configured.
func (w *Wallet) HasPin() bool {
	return w.PinHash != nil && *w.PinHash != ""
}

// IsLocked reports whether a temporary PIN lockout is in force at now.
func (w *Wallet) IsLocked(now time.Time) bool {
	return w.LockUntil != nil && w.LockUntil.After(now)
}
