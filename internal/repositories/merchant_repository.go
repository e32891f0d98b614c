package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"momo/internal/models"

	"gorm.io/gorm"
)

type MerchantRepository interface {
	Create(ctx context.Context, merchant *models.Merchant) error
	GetByCode(ctx context.Context, code string) (*models.Merchant, error)
	UpdateStatus(ctx context.Context, code, status string) error
}

type merchantRepository struct {
	db *gorm.DB
}

func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) Create(ctx context.Context, merchant *models.Merchant) error {
	merchant.Code = strings.ToUpper(strings.TrimSpace(merchant.Code))
	if err := r.db.WithContext(ctx).Create(merchant).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrMerchantExists
		}
		return fmt.Errorf("failed to create merchant: %w", err)
	}
	return nil
}

func (r *merchantRepository) GetByCode(ctx context.Context, code string) (*models.Merchant, error) {
	var merchant models.Merchant
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&merchant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}
	return &merchant, nil
}

func (r *merchantRepository) UpdateStatus(ctx context.Context, code, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Merchant{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update merchant status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMerchantNotFound
	}
	return nil
}
