package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"momo/internal/models"

	"gorm.io/gorm"
)

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{
		db: db,
	}
}

func (r *walletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	if err := r.db.WithContext(ctx).Create(wallet).Error; err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *walletRepository) GetByID(ctx context.Context, id uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).First(&wallet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) ApplyBalance(ctx context.Context, wallet *models.Wallet, delta, maxBalance int64) error {
	next := wallet.Balance + delta
	if next < 0 {
		return ErrInsufficientFunds
	}
	if delta > 0 && maxBalance > 0 && next > maxBalance {
		return ErrBalanceCeiling
	}

	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ? AND version = ?", wallet.ID, wallet.Version).
		Updates(map[string]interface{}{
			"balance":    next,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	wallet.Balance = next
	wallet.Version++
	wallet.UpdatedAt = now
	return nil
}

func (r *walletRepository) UpdateSecurity(ctx context.Context, wallet *models.Wallet) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ? AND version = ?", wallet.ID, wallet.Version).
		Updates(map[string]interface{}{
			"pin_hash":              wallet.PinHash,
			"failed_pin_attempts":   wallet.FailedPinAttempts,
			"lock_until":            wallet.LockUntil,
			"lock_escalation_level": wallet.LockEscalationLevel,
			"status":                wallet.Status,
			"status_reason":         wallet.StatusReason,
			"version":               gorm.Expr("version + 1"),
			"updated_at":            now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet security: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	wallet.Version++
	wallet.UpdatedAt = now
	return nil
}
