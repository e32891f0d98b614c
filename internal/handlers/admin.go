package handlers

import (
	"context"
	"time"

	apperrors "momo/internal/errors"
	"momo/internal/logger"
	"momo/internal/services/transaction"
	"momo/internal/utils"
	"momo/internal/utils/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WalletUnlocker clears PIN lockouts.
type WalletUnlocker interface {
	Unlock(ctx context.Context, walletID uint) error
}

type AdminHandler struct {
	unlocker WalletUnlocker
	ledger   transaction.Service
	// minAge is both the default and the floor of older_than.
	minAge time.Duration
}

func NewAdminHandler(unlocker WalletUnlocker, ledger transaction.Service, minAge time.Duration) *AdminHandler {
	return &AdminHandler{unlocker: unlocker, ledger: ledger, minAge: minAge}
}

// UnlockWallet handles POST /api/admin/wallets/:id/unlock.
func (h *AdminHandler) UnlockWallet(c *fiber.Ctx) error {
	walletID, err := pathID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}

	if err := h.unlocker.Unlock(c.UserContext(), walletID); err != nil {
		return utils.Error(c, err)
	}

	if claims, err := extractUserClaims(c); err == nil {
		logger.Log.Info("wallet unlocked by administrator",
			zap.Uint("wallet_id", walletID),
			zap.Uint("admin_id", claims.UserID))
	}
	return utils.Success(c, fiber.Map{"message": "wallet unlocked", "wallet_id": walletID})
}

// Reconcile handles POST /api/admin/reconcile?older_than=10m.
func (h *AdminHandler) Reconcile(c *fiber.Ctx) error {
	olderThan := h.minAge
	if raw := c.Query("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return utils.Error(c, validation.ErrInvalidRequest.WithMessage("older_than must be a duration such as 10m"))
		}
		if d < h.minAge {
			return utils.Error(c, apperrors.ErrReconcileTooRecent.WithMessage("older_than must be at least %s", h.minAge))
		}
		olderThan = d
	}

	report, err := h.ledger.Reconcile(c.UserContext(), olderThan)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"report": report})
}
