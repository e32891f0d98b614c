package handlers

import (
	"context"

	"momo/internal/models"
	"momo/internal/services/merchant"
	"momo/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// MerchantRegistry manages the merchants wallets can pay by code.
type MerchantRegistry interface {
	Register(ctx context.Context, input merchant.RegisterInput) (*models.Merchant, error)
	SetActive(ctx context.Context, code string, active bool) error
}

type MerchantHandler struct {
	registry MerchantRegistry
}

func NewMerchantHandler(registry MerchantRegistry) *MerchantHandler {
	return &MerchantHandler{registry: registry}
}

// Register handles POST /api/admin/merchants.
func (h *MerchantHandler) Register(c *fiber.Ctx) error {
	var input merchant.RegisterInput
	if err := parseBody(c, &input); err != nil {
		return utils.Error(c, err)
	}

	m, err := h.registry.Register(c.UserContext(), input)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, fiber.Map{"merchant": m})
}

func (h *MerchantHandler) Activate(c *fiber.Ctx) error {
	return h.setActive(c, true)
}

func (h *MerchantHandler) Deactivate(c *fiber.Ctx) error {
	return h.setActive(c, false)
}

func (h *MerchantHandler) setActive(c *fiber.Ctx, active bool) error {
	code := c.Params("code")
	if err := h.registry.SetActive(c.UserContext(), code, active); err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"code": code, "active": active})
}
