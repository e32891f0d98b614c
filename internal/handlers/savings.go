package handlers

import (
	"momo/internal/services/transaction"
	"momo/internal/services/wallet"
	"momo/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type SavingsHandler struct {
	wallets wallet.Service
	ledger  transaction.Service
}

func NewSavingsHandler(wallets wallet.Service, ledger transaction.Service) *SavingsHandler {
	return &SavingsHandler{wallets: wallets, ledger: ledger}
}

type savingsMoveRequest struct {
	Amount int64  `json:"amount"`
	Pin    string `json:"pin" validate:"required"`
}

func (h *SavingsHandler) CreateGoal(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var req wallet.SavingsGoalRequest
	if err := parseBody(c, &req); err != nil {
		return utils.Error(c, err)
	}

	goal, err := h.wallets.CreateSavingsGoal(c.UserContext(), claims.UserID, req)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, fiber.Map{"goal": goal})
}

func (h *SavingsHandler) ListGoals(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	goals, err := h.wallets.ListSavingsGoals(c.UserContext(), claims.UserID)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"goals": goals})
}

// Deposit handles POST /api/savings/:id/deposit, moving money from the wallet into the goal.
func (h *SavingsHandler) Deposit(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	goalID, err := pathID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	var req savingsMoveRequest
	if err := parseBody(c, &req); err != nil {
		return utils.Error(c, err)
	}

	res, err := h.ledger.SavingsDeposit(c.UserContext(), claims.UserID, goalID, req.Amount, req.Pin)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, res)
}

func (h *SavingsHandler) Withdraw(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	goalID, err := pathID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	var req savingsMoveRequest
	if err := parseBody(c, &req); err != nil {
		return utils.Error(c, err)
	}

	res, err := h.ledger.SavingsWithdraw(c.UserContext(), claims.UserID, goalID, req.Amount, req.Pin)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, res)
}
