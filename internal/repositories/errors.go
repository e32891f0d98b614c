package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrMerchantNotFound    = errors.New("merchant not found")
	ErrMerchantExists      = errors.New("merchant already registered")
	ErrGoalNotFound        = errors.New("savings goal not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrVersionConflict means the row changed since it was read; reload and retry.
	ErrVersionConflict = errors.New("version conflict")
	// ErrInsufficientFunds is returned when a debit would take a balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrBalanceCeiling is returned when a credit would exceed the allowed maximum balance.
	ErrBalanceCeiling = errors.New("balance ceiling exceeded")
	// ErrDuplicateReference is returned when a transaction reference is already taken.
	ErrDuplicateReference = errors.New("duplicate transaction reference")
	// ErrInvalidTransition is returned when a record is no longer PENDING.
	ErrInvalidTransition = errors.New("transaction is not pending")
	// ErrAtomicUnsupported is returned by stores configured without multi-record transactions.
	ErrAtomicUnsupported = errors.New("atomic mutations are not supported by this store")
)

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
