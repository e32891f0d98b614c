package transaction

import (
	"errors"

	apperrors "momo/internal/errors"
	"momo/internal/repositories"
)

// retryable reports whether the unit lost a race and may simply be run again.
func retryable(err error) bool {
	return errors.Is(err, repositories.ErrVersionConflict) ||
		errors.Is(err, repositories.ErrDuplicateReference)
}

// translate maps a repository failure on leg l onto the domain taxonomy.
// Domain errors and retryable conflicts pass through unchanged.
func translate(l *leg, err error) error {
	if err == nil || retryable(err) {
		return err
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, repositories.ErrInsufficientFunds):
		if l != nil && l.kind == legGoal {
			return apperrors.ErrGoalInsufficient
		}
		return apperrors.ErrInsufficientBalance
	case errors.Is(err, repositories.ErrBalanceCeiling):
		return apperrors.ErrMaxBalanceExceeded
	case errors.Is(err, repositories.ErrWalletNotFound):
		return apperrors.ErrWalletNotFound
	case errors.Is(err, repositories.ErrGoalNotFound):
		return apperrors.ErrGoalNotFound
	}
	return apperrors.Internal("ledger storage failure", err)
}
