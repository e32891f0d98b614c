package repositories

import (
	"context"

	"momo/internal/models"
)

// WalletRepository defines the wallet persistence operations.
// Every write is conditional on the wallet's version and bumps it.
type WalletRepository interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByID(ctx context.Context, id uint) (*models.Wallet, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error)

	// ApplyBalance adds delta to the balance the wallet was read with.
	// maxBalance bounds credits; 0 disables the bound.
	ApplyBalance(ctx context.Context, wallet *models.Wallet, delta, maxBalance int64) error

	// UpdateSecurity persists the PIN state and status of wallet.
	UpdateSecurity(ctx context.Context, wallet *models.Wallet) error
}
