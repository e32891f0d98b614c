package handlers

import (
	"momo/internal/services/wallet"
	"momo/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	walletService wallet.Service
}

func NewWalletHandler(walletService wallet.Service) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// OpenWallet handles POST /api/wallet. Calling it again returns the existing wallet.
func (h *WalletHandler) OpenWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	w, err := h.walletService.OpenWallet(c.UserContext(), claims.UserID)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, fiber.Map{"wallet": w})
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	w, err := h.walletService.GetWallet(c.UserContext(), claims.UserID)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"wallet": w})
}

// GetTransactions handles GET /api/wallet/transactions?page=&limit=, newest first.
func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := utils.GetPagination(c, wallet.DefaultPageSize, wallet.MaxPageSize)
	history, err := h.walletService.GetHistory(c.UserContext(), claims.UserID, wallet.Page{
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, utils.NewPaginatedResponse(history, p))
}

func (h *WalletHandler) GetTransaction(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	tx, err := h.walletService.GetTransaction(c.UserContext(), claims.UserID, c.Params("reference"))
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"transaction": tx})
}
