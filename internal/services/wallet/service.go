package wallet

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "momo/internal/errors"
	"momo/internal/logger"
	"momo/internal/models"
	"momo/internal/repositories"

	"go.uber.org/zap"
)

type service struct {
	wallets      repositories.WalletRepository
	transactions repositories.TransactionRepository
	goals        repositories.SavingsRepository
	cache        repositories.CacheRepository
	config       WalletConfig
	metrics      MetricsCollector
}

// NewService creates a new wallet service. cache and metrics may be nil.
func NewService(
	wallets repositories.WalletRepository,
	transactions repositories.TransactionRepository,
	goals repositories.SavingsRepository,
	cache repositories.CacheRepository,
	config WalletConfig,
	metrics MetricsCollector,
) Service {
	if wallets == nil {
		panic("wallet repository is required")
	}
	if transactions == nil {
		panic("transaction repository is required")
	}
	if goals == nil {
		panic("savings repository is required")
	}

	if config.DefaultCurrency == "" {
		config.DefaultCurrency = DefaultCurrency
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = MaxPageSize
	}

	// Metrics is optional, create no-op collector if nil
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		wallets:      wallets,
		transactions: transactions,
		goals:        goals,
		cache:        cache,
		config:       config,
		metrics:      metrics,
	}
}

func (s *service) OpenWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, repositories.ErrWalletNotFound) {
		return nil, apperrors.Internal("failed to load wallet", err)
	}

	wallet = &models.Wallet{
		UserID:   userID,
		Currency: s.config.DefaultCurrency,
		Status:   models.WalletStatusActive,
	}
	if err := s.wallets.Create(ctx, wallet); err != nil {
		// Lost a race with a concurrent open.
		if existing, getErr := s.wallets.GetByUserID(ctx, userID); getErr == nil {
			return existing, nil
		}
		return nil, apperrors.Internal("failed to create wallet", err)
	}

	logger.Log.Info("wallet opened", zap.Uint("user_id", userID), zap.Uint("wallet_id", wallet.ID))
	return wallet, nil
}

func (s *service) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration("get_wallet", time.Since(start))
	}()

	// Try cache first
	if s.cache != nil {
		wallet, found, err := s.cache.GetWallet(ctx, userID)
		if err != nil {
			logger.Log.Warn("wallet cache read failed", zap.Uint("user_id", userID), zap.Error(err))
		} else if found {
			s.metrics.RecordCacheHit("wallet")
			return wallet, nil
		}
		s.metrics.RecordCacheMiss("wallet")
	}

	// Get from database
	wallet, err := s.loadWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Update cache
	if s.cache != nil {
		if err := s.cache.CacheWallet(ctx, wallet); err != nil {
			logger.Log.Warn("wallet cache write failed", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
	return wallet, nil
}

func (s *service) GetHistory(ctx context.Context, userID uint, page Page) ([]models.Transaction, error) {
	wallet, err := s.loadWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	if page.Limit <= 0 {
		page.Limit = DefaultPageSize
	}
	if page.Limit > s.config.MaxPageSize {
		page.Limit = s.config.MaxPageSize
	}
	if page.Offset < 0 {
		page.Offset = 0
	}

	txs, err := s.transactions.ListByWallet(ctx, wallet.ID, page.Limit, page.Offset)
	if err != nil {
		return nil, apperrors.Internal("failed to load transaction history", err)
	}
	return txs, nil
}

func (s *service) GetTransaction(ctx context.Context, userID uint, reference string) (*models.Transaction, error) {
	wallet, err := s.loadWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	tx, err := s.transactions.GetByReference(ctx, strings.ToUpper(strings.TrimSpace(reference)))
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Internal("failed to load transaction", err)
	}
	if !touches(tx, wallet.ID) {
		return nil, apperrors.ErrTransactionNotFound
	}
	return tx, nil
}

func (s *service) CreateSavingsGoal(ctx context.Context, userID uint, req SavingsGoalRequest) (*models.SavingsGoal, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("INVALID_GOAL", "savings goal name is required")
	}
	if req.TargetAmount <= 0 {
		return nil, apperrors.Validation("INVALID_GOAL", "savings goal target must be greater than zero")
	}

	wallet, err := s.loadWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	goal := &models.SavingsGoal{
		UserID:       userID,
		WalletID:     wallet.ID,
		Name:         name,
		TargetAmount: req.TargetAmount,
		Status:       models.SavingsStatusActive,
	}
	if err := s.goals.Create(ctx, goal); err != nil {
		return nil, apperrors.Internal("failed to create savings goal", err)
	}
	return goal, nil
}

func (s *service) ListSavingsGoals(ctx context.Context, userID uint) ([]models.SavingsGoal, error) {
	goals, err := s.goals.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list savings goals", err)
	}
	return goals, nil
}

func (s *service) loadWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, apperrors.Internal("failed to load wallet", err)
	}
	return wallet, nil
}

func touches(tx *models.Transaction, walletID uint) bool {
	return (tx.SourceWalletID != nil && *tx.SourceWalletID == walletID) ||
		(tx.DestWalletID != nil && *tx.DestWalletID == walletID)
}
