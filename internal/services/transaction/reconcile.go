package transaction

import (
	"context"
	"errors"
	"time"

	apperrors "momo/internal/errors"
	"momo/internal/models"
	"momo/internal/repositories"

	"go.uber.org/zap"
)

// Reconcile settles PENDING records older than olderThan, which only the
// sequential path leaves behind. A record with no leg applied is cancelled,
// one with every leg applied is completed, and a partial one is failed for
// an operator to resolve. olderThan may not be below MinReconcileAge, so a
// record still inside the sequential path is never touched.
func (e *Engine) Reconcile(ctx context.Context, olderThan time.Duration) (*ReconcileReport, error) {
	if olderThan < e.config.MinReconcileAge {
		return nil, apperrors.ErrReconcileTooRecent.WithMessage("older_than must be at least %s", e.config.MinReconcileAge)
	}

	stale, err := e.store.Transactions().ListStalePending(ctx, e.now().Add(-olderThan), e.config.SweepBatch)
	if err != nil {
		return nil, apperrors.Internal("failed to list pending transactions", err)
	}

	report := &ReconcileReport{Scanned: len(stale)}
	for i := range stale {
		rec := &stale[i]
		status, msg := reconcileOutcome(rec)

		err := e.store.Transactions().MarkStatus(ctx, rec.Reference, status, msg)
		if errors.Is(err, repositories.ErrInvalidTransition) {
			// Settled by its own request in the meantime.
			continue
		}
		if err != nil {
			return report, apperrors.Internal("failed to settle pending transaction", err)
		}

		switch status {
		case models.TransactionStatusSuccess:
			report.Completed++
		case models.TransactionStatusCancelled:
			report.Cancelled++
		default:
			report.Failed++
			e.log.Error("transaction needs manual reconciliation",
				zap.String("reference", rec.Reference),
				zap.String("type", string(rec.Type)),
				zap.Int64("amount", rec.Amount),
				zap.Bool("source_applied", rec.SourceApplied),
				zap.Bool("dest_applied", rec.DestApplied))
		}
	}

	e.log.Info("reconciliation sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("completed", report.Completed),
		zap.Int("cancelled", report.Cancelled),
		zap.Int("failed", report.Failed))
	return report, nil
}

// MinReconcileAge is the smallest age Reconcile accepts.
func (e *Engine) MinReconcileAge() time.Duration {
	return e.config.MinReconcileAge
}

func reconcileOutcome(rec *models.Transaction) (models.TransactionStatus, string) {
	wantSource := rec.Type != models.TransactionTypeDeposit
	wantDest := rec.Type != models.TransactionTypeWithdraw

	switch {
	case !rec.SourceApplied && !rec.DestApplied:
		return models.TransactionStatusCancelled, ""
	case rec.SourceApplied == wantSource && rec.DestApplied == wantDest:
		return models.TransactionStatusSuccess, ""
	}
	return models.TransactionStatusFailed, "debit applied without matching credit; manual reconciliation required"
}
