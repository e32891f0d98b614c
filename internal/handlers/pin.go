package handlers

import (
	"context"
	"time"

	"momo/internal/services/pin"
	"momo/internal/services/transaction"
	"momo/internal/services/wallet"
	"momo/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// PinResetter issues and redeems one-time PIN reset codes.
type PinResetter interface {
	RequestReset(ctx context.Context, walletID uint) (*pin.ResetTicket, error)
	ResetWithCode(ctx context.Context, walletID uint, nonce, code, newPin string) error
}

// CodeSender delivers the reset code to the wallet owner.
type CodeSender interface {
	SendPinResetCode(ctx context.Context, phone, code string, expiresAt time.Time) error
}

type PinHandler struct {
	ledger  transaction.Service
	wallets wallet.Service
	resets  PinResetter
	sender  CodeSender
	// exposeCode returns the reset code in the response body outside production.
	exposeCode bool
}

func NewPinHandler(ledger transaction.Service, wallets wallet.Service, resets PinResetter, sender CodeSender, exposeCode bool) *PinHandler {
	return &PinHandler{
		ledger:     ledger,
		wallets:    wallets,
		resets:     resets,
		sender:     sender,
		exposeCode: exposeCode,
	}
}

type setPinRequest struct {
	NewPin string `json:"new_pin" validate:"required"`
	OldPin string `json:"old_pin"`
}

type confirmResetRequest struct {
	Nonce  string `json:"nonce" validate:"required,uuid"`
	Code   string `json:"code" validate:"required"`
	NewPin string `json:"new_pin" validate:"required"`
}

// SetPin handles POST /api/wallet/pin. old_pin is required once a PIN exists.
func (h *PinHandler) SetPin(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var req setPinRequest
	if err := parseBody(c, &req); err != nil {
		return utils.Error(c, err)
	}

	if err := h.ledger.SetPin(c.UserContext(), claims.UserID, req.NewPin, req.OldPin); err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "PIN updated"})
}

func (h *PinHandler) RequestReset(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	w, err := h.wallets.GetWallet(c.UserContext(), claims.UserID)
	if err != nil {
		return utils.Error(c, err)
	}

	ticket, err := h.resets.RequestReset(c.UserContext(), w.ID)
	if err != nil {
		return utils.Error(c, err)
	}
	if err := h.sender.SendPinResetCode(c.UserContext(), claims.Phone, ticket.Code, ticket.ExpiresAt); err != nil {
		return utils.Error(c, err)
	}

	body := fiber.Map{
		"nonce":      ticket.Nonce,
		"expires_at": ticket.ExpiresAt,
	}
	if h.exposeCode {
		body["code"] = ticket.Code
	}
	return utils.Created(c, body)
}

func (h *PinHandler) ConfirmReset(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var req confirmResetRequest
	if err := parseBody(c, &req); err != nil {
		return utils.Error(c, err)
	}

	w, err := h.wallets.GetWallet(c.UserContext(), claims.UserID)
	if err != nil {
		return utils.Error(c, err)
	}

	if err := h.resets.ResetWithCode(c.UserContext(), w.ID, req.Nonce, req.Code, req.NewPin); err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "PIN updated"})
}
