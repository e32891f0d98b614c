package repositories

import (
	"context"
	"time"

	"momo/internal/models"
)

// Leg identifies one side of a two-sided movement.
type Leg int

const (
	LegSource Leg = iota
	LegDest
)

// TransactionRepository persists ledger records.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByReference(ctx context.Context, reference string) (*models.Transaction, error)

	// MarkStatus moves a PENDING record to a terminal status.
	MarkStatus(ctx context.Context, reference string, status models.TransactionStatus, errMsg string) error
	// MarkLeg records that one leg of a sequential movement was applied.
	MarkLeg(ctx context.Context, reference string, leg Leg, before, after int64) error

	// SumOutgoingSince totals SUCCESS outgoing amounts debited from walletID since the given time.
	SumOutgoingSince(ctx context.Context, walletID uint, since time.Time) (int64, error)
	ListByWallet(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error)
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]models.Transaction, error)
}
