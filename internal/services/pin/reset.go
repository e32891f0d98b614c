package pin

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	apperrors "momo/internal/errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const resetCodeDigits = 6

// ResetTicket identifies a pending PIN reset. Code is delivered to the owner
// out of band and must be presented together with Nonce.
type ResetTicket struct {
	Nonce     string    `json:"nonce"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

type resetEntry struct {
	CodeHash string `json:"code_hash"`
}

func resetKey(walletID uint, nonce string) string {
	return fmt.Sprintf("pin_reset:%d:%s", walletID, nonce)
}

// RequestReset issues a one-time code that allows setting a new PIN without the old one.
func (g *Guard) RequestReset(ctx context.Context, walletID uint) (*ResetTicket, error) {
	if g.cache == nil {
		return nil, apperrors.Internal("PIN reset is not configured", nil)
	}
	w, err := g.load(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if err := g.checkLock(w, g.now()); err != nil {
		return nil, err
	}

	code, err := randomDigits(resetCodeDigits)
	if err != nil {
		return nil, apperrors.Internal("failed to generate reset code", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), g.config.BcryptCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash reset code", err)
	}

	ticket := &ResetTicket{
		Nonce:     uuid.NewString(),
		Code:      code,
		ExpiresAt: g.now().Add(g.config.ResetCodeTTL),
	}
	if err := g.cache.SetWithTTL(ctx, resetKey(walletID, ticket.Nonce), resetEntry{CodeHash: string(hash)}, g.config.ResetCodeTTL); err != nil {
		return nil, apperrors.Internal("failed to store reset code", err)
	}
	return ticket, nil
}

// ResetWithCode sets newPin when code matches the ticket identified by nonce.
// A ticket is consumed by the first attempt, right or wrong.
func (g *Guard) ResetWithCode(ctx context.Context, walletID uint, nonce, code, newPin string) error {
	if !ValidFormat(newPin) {
		return apperrors.ErrInvalidPinFormat
	}
	if g.cache == nil {
		return apperrors.Internal("PIN reset is not configured", nil)
	}

	// A locked wallet keeps its ticket for after the lock.
	w, err := g.load(ctx, walletID)
	if err != nil {
		return err
	}
	if err := g.checkLock(w, g.now()); err != nil {
		return err
	}

	var entry resetEntry
	found, err := g.cache.Consume(ctx, resetKey(walletID, nonce), &entry)
	if err != nil {
		return apperrors.Internal("failed to read reset code", err)
	}
	if !found || bcrypt.CompareHashAndPassword([]byte(entry.CodeHash), []byte(code)) != nil {
		return apperrors.ErrInvalidResetCode
	}
	return g.storePin(ctx, walletID, newPin)
}

func randomDigits(n int) (string, error) {
	buf := make([]byte, n)
	for i := range buf {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}
