package transaction

import (
	"context"
	"errors"

	apperrors "momo/internal/errors"
	"momo/internal/models"
	"momo/internal/repositories"
)

// SavingsDeposit moves amount from the caller's wallet into one of their goals.
// The deposit that reaches the target completes the goal in the same unit.
func (e *Engine) SavingsDeposit(ctx context.Context, userID, goalID uint, amount int64, pin string) (*Result, error) {
	return e.run(ctx, opSavingsDeposit, func() (*movement, error) {
		if amount <= 0 {
			return nil, apperrors.ErrInvalidAmount
		}
		owner, err := e.loadAccount(ctx, userID)
		if err != nil {
			return nil, err
		}
		goal, err := e.loadGoal(ctx, owner, goalID)
		if err != nil {
			return nil, err
		}
		if goal.Status != models.SavingsStatusActive {
			return nil, apperrors.ErrGoalClosed
		}
		if err := checkActive(owner.wallet); err != nil {
			return nil, err
		}
		if err := e.pins.Verify(ctx, owner.wallet.ID, pin); err != nil {
			return nil, err
		}

		typ := models.TransactionTypeSavingsIn
		if err := e.checkLimits(ctx, owner, typ, amount); err != nil {
			return nil, err
		}
		fee := e.fees.ComputeFee(amount, typ, owner.user.Country, "")
		if err := e.checkFunds(ctx, owner.wallet.ID, amount+fee); err != nil {
			return nil, err
		}

		return &movement{
			typ:          typ,
			amount:       amount,
			fee:          fee,
			source:       &leg{kind: legWallet, id: owner.wallet.ID, delta: -(amount + fee)},
			dest:         &leg{kind: legGoal, id: goal.ID, delta: amount},
			description:  "Savings: " + goal.Name,
			touchedUsers: []uint{userID},
		}, nil
	})
}

// SavingsWithdraw moves amount from one of the caller's goals back to their wallet.
func (e *Engine) SavingsWithdraw(ctx context.Context, userID, goalID uint, amount int64, pin string) (*Result, error) {
	return e.run(ctx, opSavingsWithdraw, func() (*movement, error) {
		if amount <= 0 {
			return nil, apperrors.ErrInvalidAmount
		}
		owner, err := e.loadAccount(ctx, userID)
		if err != nil {
			return nil, err
		}
		goal, err := e.loadGoal(ctx, owner, goalID)
		if err != nil {
			return nil, err
		}
		if err := checkActive(owner.wallet); err != nil {
			return nil, err
		}
		if err := e.pins.Verify(ctx, owner.wallet.ID, pin); err != nil {
			return nil, err
		}

		typ := models.TransactionTypeSavingsOut
		if err := e.checkLimits(ctx, owner, typ, amount); err != nil {
			return nil, err
		}
		fee := e.fees.ComputeFee(amount, typ, owner.user.Country, "")
		if goal.Balance < amount+fee {
			return nil, apperrors.ErrGoalInsufficient.WithMessage(
				"savings goal holds %d, %d required", goal.Balance, amount+fee)
		}
		ceiling := e.limits.MaxBalance(owner.user.KYCTier, owner.user.Country)
		if err := e.checkCredit(ctx, owner.wallet.ID, amount, ceiling); err != nil {
			return nil, err
		}

		return &movement{
			typ:          typ,
			amount:       amount,
			fee:          fee,
			source:       &leg{kind: legGoal, id: goal.ID, delta: -(amount + fee)},
			dest:         &leg{kind: legWallet, id: owner.wallet.ID, delta: amount, ceiling: ceiling},
			ownerIsDest:  true,
			description:  "Savings withdrawal: " + goal.Name,
			touchedUsers: []uint{userID},
		}, nil
	})
}

// loadGoal returns the goal only when it belongs to owner's wallet.
func (e *Engine) loadGoal(ctx context.Context, owner *account, goalID uint) (*models.SavingsGoal, error) {
	goal, err := e.store.Savings().GetByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, repositories.ErrGoalNotFound) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, apperrors.Internal("failed to load savings goal", err)
	}
	if goal.WalletID != owner.wallet.ID {
		return nil, apperrors.ErrGoalNotFound
	}
	return goal, nil
}
