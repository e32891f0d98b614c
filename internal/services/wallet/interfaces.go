package wallet

import (
	"context"
	"time"

	"momo/internal/models"
)

// Service is the read side of the ledger plus account opening. Money only
// moves through the transaction engine.
type Service interface {
	// OpenWallet returns the user's wallet, creating an empty one on first use.
	OpenWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)

	GetHistory(ctx context.Context, userID uint, page Page) ([]models.Transaction, error)
	// GetTransaction returns a record only to a user whose wallet it touched.
	GetTransaction(ctx context.Context, userID uint, reference string) (*models.Transaction, error)

	CreateSavingsGoal(ctx context.Context, userID uint, req SavingsGoalRequest) (*models.SavingsGoal, error)
	ListSavingsGoals(ctx context.Context, userID uint) ([]models.SavingsGoal, error)
}

// MetricsCollector defines the interface for collecting wallet metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordCacheHit(key string)
	RecordCacheMiss(key string)
}
