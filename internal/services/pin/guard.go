// Package pin verifies wallet PINs and enforces the escalating lockout policy.
package pin

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	apperrors "momo/internal/errors"
	"momo/internal/logger"
	"momo/internal/models"
	"momo/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var pinPattern = regexp.MustCompile(`^[0-9]{4,6}$`)

// WalletStore is the slice of the wallet repository the guard needs.
type WalletStore interface {
	GetByID(ctx context.Context, id uint) (*models.Wallet, error)
	UpdateSecurity(ctx context.Context, wallet *models.Wallet) error
}

// Cache keeps one-time reset codes with an expiry and holds the wallet
// snapshots that every security write must drop.
type Cache interface {
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Consume(ctx context.Context, key string, dest interface{}) (bool, error)
	InvalidateWallet(ctx context.Context, userID uint) error
}

type Config struct {
	MaxAttempts int
	// LockoutDurations[i] is the lock applied at escalation level i+1.
	// The level after the last entry blocks the wallet.
	LockoutDurations []time.Duration
	ResetCodeTTL     time.Duration
	MaxRetries       int
	BcryptCost       int
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:      3,
		LockoutDurations: []time.Duration{30 * time.Minute, 2 * time.Hour, 24 * time.Hour},
		ResetCodeTTL:     10 * time.Minute,
		MaxRetries:       5,
		BcryptCost:       bcrypt.DefaultCost,
	}
}

type Guard struct {
	wallets WalletStore
	cache   Cache
	config  Config
	now     func() time.Time
}

func NewGuard(wallets WalletStore, cache Cache, config Config) *Guard {
	if wallets == nil {
		panic("wallet store is required")
	}
	defaults := DefaultConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if len(config.LockoutDurations) == 0 {
		config.LockoutDurations = defaults.LockoutDurations
	}
	if config.ResetCodeTTL <= 0 {
		config.ResetCodeTTL = defaults.ResetCodeTTL
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = defaults.BcryptCost
	}

	return &Guard{
		wallets: wallets,
		cache:   cache,
		config:  config,
		now:     time.Now,
	}
}

// ValidFormat reports whether pin is 4 to 6 ASCII digits.
func ValidFormat(pin string) bool {
	return pinPattern.MatchString(pin)
}

// Verify authorizes pin against the wallet's stored hash. A nil error means authorized.
func (g *Guard) Verify(ctx context.Context, walletID uint, pin string) error {
	if !ValidFormat(pin) {
		return apperrors.ErrInvalidPinFormat
	}
	return g.withWallet(ctx, walletID, func(w *models.Wallet) error {
		return g.verify(ctx, w, pin)
	})
}

func (g *Guard) verify(ctx context.Context, w *models.Wallet, pin string) error {
	now := g.now()
	if err := g.checkLock(w, now); err != nil {
		return err
	}
	if !w.HasPin() {
		return apperrors.ErrPinNotSet
	}

	if bcrypt.CompareHashAndPassword([]byte(*w.PinHash), []byte(pin)) == nil {
		w.FailedPinAttempts = 0
		w.LockUntil = nil
		return g.save(ctx, w)
	}

	w.FailedPinAttempts++
	left := g.config.MaxAttempts - w.FailedPinAttempts
	var lockedFor time.Duration
	if left <= 0 {
		lockedFor = g.escalate(w, now)
	}
	if err := g.save(ctx, w); err != nil {
		return err
	}

	switch {
	case w.Status == models.WalletStatusBlocked:
		return apperrors.ErrIncorrectPin.WithMessage("incorrect PIN, wallet blocked until an administrator unlocks it")
	case lockedFor > 0:
		return apperrors.ErrIncorrectPin.WithMessage("incorrect PIN, wallet locked for %s", lockedFor)
	}
	return apperrors.ErrIncorrectPin.WithMessage("incorrect PIN, %d attempt(s) left", left)
}

// escalate applies the next lockout level to w and returns the lock duration,
// zero when the wallet became blocked.
func (g *Guard) escalate(w *models.Wallet, now time.Time) time.Duration {
	w.FailedPinAttempts = 0
	if w.LockEscalationLevel < models.MaxLockEscalationLevel {
		w.LockEscalationLevel++
	}

	if w.LockEscalationLevel > len(g.config.LockoutDurations) {
		w.Status = models.WalletStatusBlocked
		w.StatusReason = "too many incorrect PIN attempts"
		w.LockUntil = nil
		return 0
	}

	d := g.config.LockoutDurations[w.LockEscalationLevel-1]
	until := now.Add(d)
	w.LockUntil = &until
	return d
}

func (g *Guard) checkLock(w *models.Wallet, now time.Time) error {
	if w.Status == models.WalletStatusBlocked {
		return apperrors.Locked(apperrors.ErrWalletBlocked.Code, 0)
	}
	if w.IsLocked(now) {
		return apperrors.Locked("WALLET_LOCKED", w.LockUntil.Sub(now))
	}
	return nil
}

// SetPin configures or changes the wallet PIN. oldPin is required, and verified
// with the usual lockout accounting, when a PIN already exists.
func (g *Guard) SetPin(ctx context.Context, walletID uint, newPin, oldPin string) error {
	if !ValidFormat(newPin) {
		return apperrors.ErrInvalidPinFormat
	}

	w, err := g.load(ctx, walletID)
	if err != nil {
		return err
	}
	if w.HasPin() {
		if oldPin == "" {
			return apperrors.ErrOldPinRequired
		}
		if err := g.Verify(ctx, walletID, oldPin); err != nil {
			return err
		}
	}

	return g.storePin(ctx, walletID, newPin)
}

func (g *Guard) storePin(ctx context.Context, walletID uint, newPin string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPin), g.config.BcryptCost)
	if err != nil {
		return apperrors.Internal("failed to hash PIN", err)
	}
	encoded := string(hash)

	return g.withWallet(ctx, walletID, func(w *models.Wallet) error {
		if err := g.checkLock(w, g.now()); err != nil {
			return err
		}
		w.PinHash = &encoded
		w.FailedPinAttempts = 0
		return g.save(ctx, w)
	})
}

// Unlock clears every lockout, including a permanent block, and resets the
// escalation level.
func (g *Guard) Unlock(ctx context.Context, walletID uint) error {
	return g.withWallet(ctx, walletID, func(w *models.Wallet) error {
		w.Status = models.WalletStatusActive
		w.StatusReason = ""
		w.FailedPinAttempts = 0
		w.LockUntil = nil
		w.LockEscalationLevel = 0
		return g.save(ctx, w)
	})
}

// save persists the security fields of w and drops the cached snapshot.
func (g *Guard) save(ctx context.Context, w *models.Wallet) error {
	if err := g.wallets.UpdateSecurity(ctx, w); err != nil {
		return err
	}
	if g.cache != nil {
		if err := g.cache.InvalidateWallet(ctx, w.UserID); err != nil {
			logger.Log.Warn("wallet cache invalidation failed", zap.Uint("user_id", w.UserID), zap.Error(err))
		}
	}
	return nil
}

// withWallet loads the wallet and runs fn, reloading and retrying while the
// version-conditional write loses to a concurrent writer.
func (g *Guard) withWallet(ctx context.Context, walletID uint, fn func(*models.Wallet) error) error {
	for attempt := 0; attempt < g.config.MaxRetries; attempt++ {
		w, err := g.load(ctx, walletID)
		if err != nil {
			return err
		}
		err = fn(w)
		if errors.Is(err, repositories.ErrVersionConflict) {
			continue
		}
		if err != nil {
			if _, ok := apperrors.As(err); ok {
				return err
			}
			return apperrors.Internal("failed to update PIN state", err)
		}
		return nil
	}
	return apperrors.Internal("failed to update PIN state",
		fmt.Errorf("%w after %d attempts", repositories.ErrVersionConflict, g.config.MaxRetries))
}

func (g *Guard) load(ctx context.Context, walletID uint) (*models.Wallet, error) {
	w, err := g.wallets.GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, apperrors.Internal("failed to load wallet", err)
	}
	return w, nil
}
