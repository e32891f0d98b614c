package transaction

import (
	"context"
	"time"

	"momo/internal/models"
	"momo/internal/services/limits"
)

// Service is the money-moving surface the HTTP layer calls. *Engine implements it.
type Service interface {
	Deposit(ctx context.Context, userID uint, amount int64, sourceLabel string) (*Result, error)
	Withdraw(ctx context.Context, userID uint, amount int64, pin, destLabel string) (*Result, error)
	Transfer(ctx context.Context, userID uint, counterpartPhone string, amount int64, pin string) (*Result, error)
	MerchantPayment(ctx context.Context, userID uint, merchantCode string, amount int64, pin string) (*Result, error)
	SavingsDeposit(ctx context.Context, userID, goalID uint, amount int64, pin string) (*Result, error)
	SavingsWithdraw(ctx context.Context, userID, goalID uint, amount int64, pin string) (*Result, error)
	SetPin(ctx context.Context, userID uint, newPin, oldPin string) error
	Reconcile(ctx context.Context, olderThan time.Duration) (*ReconcileReport, error)
}

var _ Service = (*Engine)(nil)

// PinVerifier authorizes PIN-protected operations.
type PinVerifier interface {
	Verify(ctx context.Context, walletID uint, pin string) error
	SetPin(ctx context.Context, walletID uint, newPin, oldPin string) error
}

// LimitChecker validates amounts against tier and country limits.
type LimitChecker interface {
	CheckLimits(ctx context.Context, req limits.LimitRequest) error
	MaxBalance(tier models.KYCTier, country string) int64
}

// FeeCalculator prices a movement.
type FeeCalculator interface {
	ComputeFee(amount int64, t models.TransactionType, originCountry, destCountry string) int64
}

// ReferenceGenerator hands out transaction references.
type ReferenceGenerator interface {
	Next() string
}

// WalletCache is invalidated after every balance change.
type WalletCache interface {
	InvalidateWallet(ctx context.Context, userID uint) error
}

// MetricsCollector defines the interface for collecting engine metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)
	RecordRetry(operation string)
	RecordTransactionVolume(t models.TransactionType, amount, fee int64)
}
