// Package transaction is the money-movement engine: it authorizes, prices and
// applies every ledger operation and writes exactly one record per accepted one.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "momo/internal/errors"
	"momo/internal/logger"
	"momo/internal/models"
	"momo/internal/repositories"
	"momo/internal/services/limits"

	"go.uber.org/zap"
)

type Engine struct {
	store     repositories.LedgerStore
	users     repositories.UserRepository
	merchants repositories.MerchantRepository
	pins      PinVerifier
	limits    LimitChecker
	fees      FeeCalculator
	refs      ReferenceGenerator
	cache     WalletCache
	metrics   MetricsCollector
	log       *zap.Logger
	config    Config
	now       func() time.Time
}

// NewEngine creates a new transaction engine
func NewEngine(deps Dependencies, config Config) *Engine {
	if deps.Store == nil {
		panic("store is required")
	}
	if deps.Users == nil {
		panic("user repository is required")
	}
	if deps.Merchants == nil {
		panic("merchant repository is required")
	}
	if deps.Pins == nil {
		panic("pin verifier is required")
	}
	if deps.Limits == nil {
		panic("limit checker is required")
	}
	if deps.Fees == nil {
		panic("fee calculator is required")
	}
	if deps.References == nil {
		panic("reference generator is required")
	}

	if config.Currency == "" {
		config.Currency = DefaultCurrency
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.SweepBatch <= 0 {
		config.SweepBatch = DefaultSweepBatch
	}
	if config.MinReconcileAge <= 0 {
		config.MinReconcileAge = DefaultMinReconcileAge
	}
	if config.SequentialTimeout <= 0 {
		config.SequentialTimeout = DefaultSequentialTimeout
	}
	// A record must be out of the sequential path before a sweep may see it as stale.
	if config.SequentialTimeout >= config.MinReconcileAge {
		config.SequentialTimeout = config.MinReconcileAge / 2
	}

	// Metrics is optional, create no-op collector if nil
	if deps.Metrics == nil {
		deps.Metrics = &NoopMetricsCollector{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Log
	}

	return &Engine{
		store:     deps.Store,
		users:     deps.Users,
		merchants: deps.Merchants,
		pins:      deps.Pins,
		limits:    deps.Limits,
		fees:      deps.Fees,
		refs:      deps.References,
		cache:     deps.Cache,
		metrics:   deps.Metrics,
		log:       deps.Logger.Named("ledger"),
		config:    config,
		now:       time.Now,
	}
}

// account is a user together with their wallet.
type account struct {
	user   *models.User
	wallet *models.Wallet
}

// Deposit credits money arriving from an external network. No PIN is required.
func (e *Engine) Deposit(ctx context.Context, userID uint, amount int64, sourceLabel string) (*Result, error) {
	return e.run(ctx, opDeposit, func() (*movement, error) {
		if amount <= 0 {
			return nil, apperrors.ErrInvalidAmount
		}
		owner, err := e.loadAccount(ctx, userID)
		if err != nil {
			return nil, err
		}
		// A PIN block stops debits only; money may still arrive.
		if owner.wallet.Status == models.WalletStatusSuspended {
			return nil, apperrors.ErrWalletSuspended
		}

		typ := models.TransactionTypeDeposit
		if err := e.checkLimits(ctx, owner, typ, amount); err != nil {
			return nil, err
		}
		fee := e.fees.ComputeFee(amount, typ, owner.user.Country, "")

		ceiling := e.limits.MaxBalance(owner.user.KYCTier, owner.user.Country)
		if err := e.checkCredit(ctx, owner.wallet.ID, amount, ceiling); err != nil {
			return nil, err
		}

		return &movement{
			typ:          typ,
			amount:       amount,
			fee:          fee,
			dest:         &leg{kind: legWallet, id: owner.wallet.ID, delta: amount, ceiling: ceiling},
			ownerIsDest:  true,
			sourceLabel:  strings.TrimSpace(sourceLabel),
			description:  "Deposit",
			touchedUsers: []uint{userID},
		}, nil
	})
}

// Withdraw sends amount to an external network, debiting amount plus fee.
func (e *Engine) Withdraw(ctx context.Context, userID uint, amount int64, pin, destLabel string) (*Result, error) {
	return e.run(ctx, opWithdraw, func() (*movement, error) {
		if amount <= 0 {
			return nil, apperrors.ErrInvalidAmount
		}
		owner, err := e.loadAccount(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := checkActive(owner.wallet); err != nil {
			return nil, err
		}
		if err := e.pins.Verify(ctx, owner.wallet.ID, pin); err != nil {
			return nil, err
		}

		typ := models.TransactionTypeWithdraw
		if err := e.checkLimits(ctx, owner, typ, amount); err != nil {
			return nil, err
		}
		fee := e.fees.ComputeFee(amount, typ, owner.user.Country, "")
		if err := e.checkFunds(ctx, owner.wallet.ID, amount+fee); err != nil {
			return nil, err
		}

		description := "Withdrawal"
		if label := strings.TrimSpace(destLabel); label != "" {
			description = "Withdrawal to " + label
		}
		return &movement{
			typ:          typ,
			amount:       amount,
			fee:          fee,
			source:       &leg{kind: legWallet, id: owner.wallet.ID, delta: -(amount + fee)},
			description:  description,
			touchedUsers: []uint{userID},
		}, nil
	})
}

// Transfer moves amount to the wallet registered for counterpartPhone. A
// recipient in another country turns the transfer into a CROSS_BORDER one.
func (e *Engine) Transfer(ctx context.Context, userID uint, counterpartPhone string, amount int64, pin string) (*Result, error) {
	return e.run(ctx, opTransfer, func() (*movement, error) {
		if amount <= 0 {
			return nil, apperrors.ErrInvalidAmount
		}
		owner, err := e.loadAccount(ctx, userID)
		if err != nil {
			return nil, err
		}
		recipient, err := e.loadCounterpart(ctx, strings.TrimSpace(counterpartPhone))
		if err != nil {
			return nil, err
		}
		if recipient.wallet.ID == owner.wallet.ID {
			return nil, apperrors.ErrSelfTransfer
		}
		if err := checkActive(owner.wallet); err != nil {
			return nil, err
		}
		if recipient.wallet.Status == models.WalletStatusSuspended {
			return nil, apperrors.ErrWalletSuspended.WithMessage("recipient wallet is suspended")
		}
		if err := e.pins.Verify(ctx, owner.wallet.ID, pin); err != nil {
			return nil, err
		}

		typ := models.TransactionTypeTransfer
		if !strings.EqualFold(owner.user.Country, recipient.user.Country) {
			typ = models.TransactionTypeCrossBorder
		}
		if err := e.checkLimits(ctx, owner, typ, amount); err != nil {
			return nil, err
		}
		fee := e.fees.ComputeFee(amount, typ, owner.user.Country, recipient.user.Country)
		if err := e.checkFunds(ctx, owner.wallet.ID, amount+fee); err != nil {
			return nil, err
		}
		ceiling := e.limits.MaxBalance(recipient.user.KYCTier, recipient.user.Country)
		if err := e.checkCredit(ctx, recipient.wallet.ID, amount, ceiling); err != nil {
			return nil, err
		}

		return &movement{
			typ:          typ,
			amount:       amount,
			fee:          fee,
			source:       &leg{kind: legWallet, id: owner.wallet.ID, delta: -(amount + fee)},
			dest:         &leg{kind: legWallet, id: recipient.wallet.ID, delta: amount, ceiling: ceiling},
			description:  "Transfer to " + recipient.user.Phone,
			touchedUsers: []uint{userID, recipient.user.ID},
		}, nil
	})
}

// MerchantPayment pays the merchant registered under merchantCode.
func (e *Engine) MerchantPayment(ctx context.Context, userID uint, merchantCode string, amount int64, pin string) (*Result, error) {
	return e.run(ctx, opMerchantPayment, func() (*movement, error) {
		if amount <= 0 {
			return nil, apperrors.ErrInvalidAmount
		}
		owner, err := e.loadAccount(ctx, userID)
		if err != nil {
			return nil, err
		}
		merchant, err := e.merchants.GetByCode(ctx, merchantCode)
		if err != nil {
			if errors.Is(err, repositories.ErrMerchantNotFound) {
				return nil, apperrors.ErrMerchantNotFound
			}
			return nil, apperrors.Internal("failed to load merchant", err)
		}
		if merchant.Status != models.MerchantStatusActive {
			return nil, apperrors.ErrMerchantInactive
		}
		payee, err := e.loadAccount(ctx, merchant.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrAccountNotFound) || errors.Is(err, apperrors.ErrWalletNotFound) {
				return nil, apperrors.ErrMerchantNotFound
			}
			return nil, err
		}
		if payee.wallet.ID == owner.wallet.ID {
			return nil, apperrors.ErrSelfTransfer.WithMessage("cannot pay your own merchant account")
		}
		if err := checkActive(owner.wallet); err != nil {
			return nil, err
		}
		if payee.wallet.Status == models.WalletStatusSuspended {
			return nil, apperrors.ErrMerchantInactive
		}
		if err := e.pins.Verify(ctx, owner.wallet.ID, pin); err != nil {
			return nil, err
		}

		typ := models.TransactionTypeMerchantPayment
		if err := e.checkLimits(ctx, owner, typ, amount); err != nil {
			return nil, err
		}
		fee := e.fees.ComputeFee(amount, typ, owner.user.Country, payee.user.Country)
		if err := e.checkFunds(ctx, owner.wallet.ID, amount+fee); err != nil {
			return nil, err
		}
		ceiling := e.limits.MaxBalance(payee.user.KYCTier, payee.user.Country)
		if err := e.checkCredit(ctx, payee.wallet.ID, amount, ceiling); err != nil {
			return nil, err
		}

		merchantID := merchant.ID
		return &movement{
			typ:          typ,
			amount:       amount,
			fee:          fee,
			source:       &leg{kind: legWallet, id: owner.wallet.ID, delta: -(amount + fee)},
			dest:         &leg{kind: legWallet, id: payee.wallet.ID, delta: amount, ceiling: ceiling},
			description:  "Payment to " + merchant.BusinessName,
			merchantID:   &merchantID,
			touchedUsers: []uint{userID, merchant.UserID},
		}, nil
	})
}

// SetPin configures or changes the caller's PIN.
func (e *Engine) SetPin(ctx context.Context, userID uint, newPin, oldPin string) error {
	owner, err := e.loadAccount(ctx, userID)
	if err != nil {
		return err
	}
	if err := e.pins.SetPin(ctx, owner.wallet.ID, newPin, oldPin); err != nil {
		return err
	}
	e.log.Info("wallet PIN updated", zap.Uint("wallet_id", owner.wallet.ID))
	return nil
}

// run validates and prices an operation through build, then applies it.
// Rejections before this point never write anything.
func (e *Engine) run(ctx context.Context, op string, build func() (*movement, error)) (*Result, error) {
	start := e.now()
	defer func() {
		e.metrics.RecordOperationDuration(op, sinceMillis(start))
	}()

	m, err := build()
	if err != nil {
		e.rejected(op, err)
		return nil, err
	}
	m.op = op

	res, err := e.execute(ctx, m)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			e.metrics.RecordOperationResult(op, resultFailed)
			e.log.Error("transaction failed",
				zap.String("operation", op),
				zap.Int64("amount", m.amount),
				zap.Error(err))
		} else {
			e.rejected(op, err)
		}
		return nil, err
	}
	e.metrics.RecordOperationResult(op, resultSuccess)
	return res, nil
}

func (e *Engine) rejected(op string, err error) {
	e.metrics.RecordOperationResult(op, resultRejected)
	e.log.Info("transaction rejected",
		zap.String("operation", op),
		zap.String("kind", apperrors.KindOf(err).String()),
		zap.Error(err))
}

func (e *Engine) loadAccount(ctx context.Context, userID uint) (*account, error) {
	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Internal("failed to load account", err)
	}
	wallet, err := e.store.Wallets().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, apperrors.Internal("failed to load wallet", err)
	}
	return &account{user: user, wallet: wallet}, nil
}

func (e *Engine) loadCounterpart(ctx context.Context, phone string) (*account, error) {
	if phone == "" {
		return nil, apperrors.Validation("INVALID_PHONE", "recipient phone number is required")
	}
	user, err := e.users.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrCounterpartNotFound
		}
		return nil, apperrors.Internal("failed to load recipient", err)
	}
	acc, err := e.loadAccount(ctx, user.ID)
	if errors.Is(err, apperrors.ErrWalletNotFound) {
		return nil, apperrors.ErrCounterpartNotFound
	}
	return acc, err
}

func (e *Engine) checkLimits(ctx context.Context, owner *account, typ models.TransactionType, amount int64) error {
	return e.limits.CheckLimits(ctx, limits.LimitRequest{
		WalletID: owner.wallet.ID,
		Tier:     owner.user.KYCTier,
		Country:  owner.user.Country,
		Type:     typ,
		Amount:   amount,
	})
}

// checkFunds rereads the wallet, which the PIN check may have just written.
func (e *Engine) checkFunds(ctx context.Context, walletID uint, debit int64) error {
	wallet, err := e.store.Wallets().GetByID(ctx, walletID)
	if err != nil {
		return translate(nil, err)
	}
	if wallet.Balance < debit {
		return apperrors.ErrInsufficientBalance.WithMessage(
			"insufficient wallet balance: %d available, %d required", wallet.Balance, debit)
	}
	return nil
}

func (e *Engine) checkCredit(ctx context.Context, walletID uint, credit, ceiling int64) error {
	if ceiling <= 0 {
		return nil
	}
	wallet, err := e.store.Wallets().GetByID(ctx, walletID)
	if err != nil {
		return translate(nil, err)
	}
	if wallet.Balance+credit > ceiling {
		return apperrors.ErrMaxBalanceExceeded.WithMessage(
			"credit of %d would exceed the maximum balance of %d", credit, ceiling)
	}
	return nil
}

// checkActive rejects suspended and blocked source wallets.
func checkActive(w *models.Wallet) error {
	switch w.Status {
	case models.WalletStatusSuspended:
		return apperrors.ErrWalletSuspended
	case models.WalletStatusBlocked:
		return apperrors.Locked(apperrors.ErrWalletBlocked.Code, 0)
	case models.WalletStatusActive:
		return nil
	}
	return fmt.Errorf("%w: unknown wallet status %q", apperrors.ErrWalletSuspended, w.Status)
}
