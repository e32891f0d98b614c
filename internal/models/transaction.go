package models

import (
	"time"
)

type TransactionType string

// Transaction types
const (
	TransactionTypeDeposit         TransactionType = "DEPOSIT"
	TransactionTypeWithdraw        TransactionType = "WITHDRAW"
	TransactionTypeTransfer        TransactionType = "TRANSFER"
	TransactionTypeMerchantPayment TransactionType = "MERCHANT_PAYMENT"
	TransactionTypeSavingsIn       TransactionType = "SAVINGS_IN"
	TransactionTypeSavingsOut      TransactionType = "SAVINGS_OUT"
	TransactionTypeCrossBorder     TransactionType = "CROSS_BORDER"
)

// OutgoingTransactionTypes count against a wallet's daily and monthly turnover.
var OutgoingTransactionTypes = []TransactionType{
	TransactionTypeWithdraw,
	TransactionTypeTransfer,
	TransactionTypeMerchantPayment,
	TransactionTypeCrossBorder,
}

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdraw, TransactionTypeTransfer,
		TransactionTypeMerchantPayment, TransactionTypeSavingsIn, TransactionTypeSavingsOut,
		TransactionTypeCrossBorder:
		return true
	}
	return false
}

// IsOutgoing reports whether money leaves the ledger owner's wallet for someone else.
func (t TransactionType) IsOutgoing() bool {
	for _, o := range OutgoingTransactionTypes {
		if o == t {
			return true
		}
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusSuccess   TransactionStatus = "SUCCESS"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is allowed.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusSuccess || s == TransactionStatusFailed || s == TransactionStatusCancelled
}

// CanTransitionTo allows only PENDING -> terminal.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	return s == TransactionStatusPending && next.IsTerminal()
}

// Transaction is the immutable ledger record of one money movement.
type Transaction struct {
	ID             uint              `gorm:"primarykey" json:"-"`
	Reference      string            `gorm:"uniqueIndex;not null" json:"reference"`
	Type           TransactionType   `gorm:"not null;index" json:"type"`
	Amount         int64             `gorm:"not null;check:amount > 0" json:"amount"`
	Fee            int64             `gorm:"not null;default:0;check:fee >= 0" json:"fee"`
	Currency       string            `gorm:"not null" json:"currency"`
	Status         TransactionStatus `gorm:"not null;default:'PENDING';index" json:"status"`
	SourceLabel    string            `json:"source_label,omitempty"`
	Description    string            `json:"description,omitempty"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	SourceWalletID *uint             `gorm:"index" json:"source_wallet_id,omitempty"`
	DestWalletID   *uint             `gorm:"index" json:"dest_wallet_id,omitempty"`
	SavingsGoalID  *uint             `json:"savings_goal_id,omitempty"`
	MerchantID     *uint             `json:"merchant_id,omitempty"`

	BalanceBeforeSource *int64 `json:"balance_before_source,omitempty"`
	BalanceAfterSource  *int64 `json:"balance_after_source,omitempty"`
	BalanceBeforeDest   *int64 `json:"balance_before_dest,omitempty"`
	BalanceAfterDest    *int64 `json:"balance_after_dest,omitempty"`

	// Leg markers written by the sequential path so a sweep can tell how far it got.
	SourceApplied bool `gorm:"not null;default:false" json:"-"`
	DestApplied   bool `gorm:"not null;default:false" json:"-"`

	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// Debited returns amount + fee, the total leaving the source wallet.
func (t *Transaction) Debited() int64 {
	return t.Amount + t.Fee
}
