// Package merchant registers the businesses wallets can pay by code.
package merchant

import (
	"context"
	"errors"
	"regexp"
	"strings"

	apperrors "momo/internal/errors"
	"momo/internal/logger"
	"momo/internal/models"
	"momo/internal/repositories"

	"go.uber.org/zap"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{3,16}$`)

type Service struct {
	merchants repositories.MerchantRepository
	wallets   repositories.WalletRepository
}

func NewService(merchants repositories.MerchantRepository, wallets repositories.WalletRepository) *Service {
	return &Service{merchants: merchants, wallets: wallets}
}

// Register creates an active merchant. Payments settle into the owner's wallet,
// so the owner must already have one.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.Merchant, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if !codePattern.MatchString(code) {
		return nil, ErrInvalidCode
	}

	if _, err := s.wallets.GetByUserID(ctx, input.UserID); err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, apperrors.Internal("failed to load owner wallet", err)
	}

	m := &models.Merchant{
		UserID:       input.UserID,
		Code:         code,
		BusinessName: strings.TrimSpace(input.BusinessName),
		BusinessType: strings.TrimSpace(input.BusinessType),
		Status:       models.MerchantStatusActive,
	}
	if err := s.merchants.Create(ctx, m); err != nil {
		if errors.Is(err, repositories.ErrMerchantExists) {
			return nil, apperrors.ErrMerchantExists
		}
		return nil, apperrors.Internal("failed to register merchant", err)
	}

	logger.Log.Info("merchant registered",
		zap.String("code", m.Code),
		zap.Uint("user_id", m.UserID))
	return m, nil
}

// SetActive enables or disables payments to the merchant.
func (s *Service) SetActive(ctx context.Context, code string, active bool) error {
	status := models.MerchantStatusInactive
	if active {
		status = models.MerchantStatusActive
	}
	if err := s.merchants.UpdateStatus(ctx, code, status); err != nil {
		if errors.Is(err, repositories.ErrMerchantNotFound) {
			return apperrors.ErrMerchantNotFound
		}
		return apperrors.Internal("failed to update merchant", err)
	}
	return nil
}
