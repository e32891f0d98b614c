package handlers

import (
	"context"
	"errors"

	apperrors "momo/internal/errors"
	"momo/internal/logger"
	"momo/internal/models"
	"momo/internal/repositories"
	"momo/internal/services/transaction"
	"momo/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AccountLookup resolves the wallet owner a network deposit is addressed to.
type AccountLookup interface {
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
}

// TransactionHandler exposes the money-moving endpoints under /api/wallet
// and the cash-in endpoint under /api/network.
type TransactionHandler struct {
	ledger   transaction.Service
	accounts AccountLookup
}

func NewTransactionHandler(ledger transaction.Service, accounts AccountLookup) *TransactionHandler {
	return &TransactionHandler{ledger: ledger, accounts: accounts}
}

type depositRequest struct {
	Phone  string `json:"phone" validate:"required,phone"`
	Amount int64  `json:"amount"`
	Source string `json:"source" validate:"required,max=64"`
}

type withdrawRequest struct {
	Amount      int64  `json:"amount"`
	Pin         string `json:"pin" validate:"required"`
	Destination string `json:"destination" validate:"max=64"`
}

type transferRequest struct {
	Phone  string `json:"phone" validate:"required,phone"`
	Amount int64  `json:"amount"`
	Pin    string `json:"pin" validate:"required"`
}

type paymentRequest struct {
	MerchantCode string `json:"merchant_code" validate:"required,max=32"`
	Amount       int64  `json:"amount"`
	Pin          string `json:"pin" validate:"required"`
}

// Deposit handles POST /api/network/deposits: the network gateway reports
// cash-in for the wallet registered to phone.
func (h *TransactionHandler) Deposit(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var req depositRequest
	if err := parseBody(c, &req); err != nil {
		return utils.Error(c, err)
	}

	owner, err := h.accounts.GetByPhone(c.UserContext(), req.Phone)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return utils.Error(c, apperrors.ErrAccountNotFound)
		}
		return utils.Error(c, apperrors.Internal("failed to resolve account", err))
	}

	res, err := h.ledger.Deposit(c.UserContext(), owner.ID, req.Amount, req.Source)
	if err != nil {
		return utils.Error(c, err)
	}
	logger.Log.Info("network deposit",
		zap.Uint("gateway_id", claims.UserID),
		zap.Uint("user_id", owner.ID),
		zap.Int64("amount", req.Amount),
		zap.String("source", req.Source))
	return utils.Success(c, res)
}

func (h *TransactionHandler) Withdraw(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var req withdrawRequest
	if err := parseBody(c, &req); err != nil {
		return utils.Error(c, err)
	}

	res, err := h.ledger.Withdraw(c.UserContext(), claims.UserID, req.Amount, req.Pin, req.Destination)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, res)
}

func (h *TransactionHandler) Transfer(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var req transferRequest
	if err := parseBody(c, &req); err != nil {
		return utils.Error(c, err)
	}

	res, err := h.ledger.Transfer(c.UserContext(), claims.UserID, req.Phone, req.Amount, req.Pin)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, res)
}

// Pay handles POST /api/wallet/pay.
func (h *TransactionHandler) Pay(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var req paymentRequest
	if err := parseBody(c, &req); err != nil {
		return utils.Error(c, err)
	}

	res, err := h.ledger.MerchantPayment(c.UserContext(), claims.UserID, req.MerchantCode, req.Amount, req.Pin)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, res)
}
