package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"momo/internal/models"

	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateReference
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (r *transactionRepository) MarkStatus(ctx context.Context, reference string, status models.TransactionStatus, errMsg string) error {
	if !models.TransactionStatusPending.CanTransitionTo(status) {
		return fmt.Errorf("%w: cannot move to %s", ErrInvalidTransition, status)
	}

	updates := map[string]interface{}{
		"status":       status,
		"processed_at": time.Now(),
	}
	if status == models.TransactionStatusFailed {
		updates["error_message"] = errMsg
	}

	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("reference = ? AND status = ?", reference, models.TransactionStatusPending).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update transaction status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *transactionRepository) MarkLeg(ctx context.Context, reference string, leg Leg, before, after int64) error {
	var updates map[string]interface{}
	switch leg {
	case LegSource:
		updates = map[string]interface{}{
			"source_applied":        true,
			"balance_before_source": before,
			"balance_after_source":  after,
		}
	case LegDest:
		updates = map[string]interface{}{
			"dest_applied":        true,
			"balance_before_dest": before,
			"balance_after_dest":  after,
		}
	default:
		return fmt.Errorf("unknown leg %d", leg)
	}

	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("reference = ? AND status = ?", reference, models.TransactionStatusPending).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to mark transaction leg: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *transactionRepository) SumOutgoingSince(ctx context.Context, walletID uint, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("source_wallet_id = ? AND status = ? AND type IN ? AND created_at >= ?",
			walletID, models.TransactionStatusSuccess, models.OutgoingTransactionTypes, since.Local()).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum outgoing transactions: %w", err)
	}
	return total, nil
}

func (r *transactionRepository) ListByWallet(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("source_wallet_id = ? OR dest_wallet_id = ?", walletID, walletID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return txs, nil
}

func (r *transactionRepository) ListStalePending(ctx context.Context, before time.Time, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.TransactionStatusPending, before.Local()).
		Order("created_at ASC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	return txs, nil
}
