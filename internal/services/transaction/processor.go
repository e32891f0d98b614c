package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "momo/internal/errors"
	"momo/internal/models"
	"momo/internal/repositories"

	"go.uber.org/zap"
)

type legKind int

const (
	legWallet legKind = iota
	legGoal
)

// leg is one side of a movement: a wallet or a savings goal and the signed
// amount applied to it.
type leg struct {
	kind  legKind
	id    uint
	delta int64
	// ceiling bounds credits to a wallet; 0 disables it.
	ceiling int64
}

// movement is a fully validated and priced operation ready to be applied.
type movement struct {
	op          string
	typ         models.TransactionType
	amount      int64
	fee         int64
	source      *leg
	dest        *leg
	ownerIsDest bool

	sourceLabel string
	description string
	merchantID  *uint
	// users whose cached wallet must be dropped once money moved.
	touchedUsers []uint
}

func (m *movement) newRecord(reference, currency string, status models.TransactionStatus) *models.Transaction {
	rec := &models.Transaction{
		Reference:   reference,
		Type:        m.typ,
		Amount:      m.amount,
		Fee:         m.fee,
		Currency:    currency,
		Status:      status,
		SourceLabel: m.sourceLabel,
		Description: m.description,
		MerchantID:  m.merchantID,
	}
	for _, l := range []*leg{m.source, m.dest} {
		if l == nil {
			continue
		}
		id := l.id
		switch {
		case l.kind == legGoal:
			rec.SavingsGoalID = &id
		case l == m.source:
			rec.SourceWalletID = &id
		default:
			rec.DestWalletID = &id
		}
	}
	return rec
}

// execute applies m, preferring the atomic unit and falling back to the
// sequential path only when the store cannot run one.
func (e *Engine) execute(ctx context.Context, m *movement) (*Result, error) {
	// Once money starts moving the caller can no longer cancel it.
	ctx = context.WithoutCancel(ctx)

	var (
		rec      *models.Transaction
		ownerBal int64
	)
	for attempt := 1; ; attempt++ {
		ref := e.refs.Next()
		err := e.store.ExecuteInTransaction(ctx, func(s repositories.LedgerStore) error {
			var err error
			rec, ownerBal, err = e.applyAtomic(ctx, s, m, ref)
			return err
		})
		if errors.Is(err, repositories.ErrAtomicUnsupported) {
			return e.executeSequential(ctx, m)
		}
		if err == nil {
			break
		}
		if !retryable(err) {
			return nil, err
		}
		if attempt >= e.config.MaxRetries {
			e.log.Warn("giving up after repeated conflicts",
				zap.String("operation", m.op),
				zap.Int("attempts", attempt),
				zap.Error(err))
			return nil, apperrors.ErrLedgerBusy.Wrap(err)
		}
		e.metrics.RecordRetry(m.op)
	}

	e.settled(ctx, m, rec)
	return &Result{NewBalance: ownerBal, Record: rec}, nil
}

// applyAtomic runs every mutation of m against s, which is bound to one
// database transaction. Any error rolls the whole unit back.
func (e *Engine) applyAtomic(ctx context.Context, s repositories.LedgerStore, m *movement, ref string) (*models.Transaction, int64, error) {
	rec := m.newRecord(ref, e.config.Currency, models.TransactionStatusSuccess)

	var ownerBal int64
	if m.source != nil {
		before, after, err := applyLeg(ctx, s, m.source)
		if err != nil {
			return nil, 0, err
		}
		rec.BalanceBeforeSource, rec.BalanceAfterSource = &before, &after
		rec.SourceApplied = true
		ownerBal = after
	}
	if m.dest != nil {
		before, after, err := applyLeg(ctx, s, m.dest)
		if err != nil {
			return nil, 0, err
		}
		rec.BalanceBeforeDest, rec.BalanceAfterDest = &before, &after
		rec.DestApplied = true
		if m.ownerIsDest {
			ownerBal = after
		}
	}

	now := e.now()
	rec.ProcessedAt = &now
	if err := s.Transactions().Create(ctx, rec); err != nil {
		return nil, 0, translate(nil, err)
	}
	return rec, ownerBal, nil
}

// applyLeg reloads the leg's account through s and applies its delta with a
// version-conditional write.
func applyLeg(ctx context.Context, s repositories.LedgerStore, l *leg) (before, after int64, err error) {
	if l.kind == legGoal {
		goal, err := s.Savings().GetByID(ctx, l.id)
		if err != nil {
			return 0, 0, translate(l, err)
		}
		if l.delta > 0 && goal.Status != models.SavingsStatusActive {
			return 0, 0, apperrors.ErrGoalClosed
		}
		before = goal.Balance
		if err := s.Savings().ApplyBalance(ctx, goal, l.delta); err != nil {
			return 0, 0, translate(l, err)
		}
		return before, goal.Balance, nil
	}

	wallet, err := s.Wallets().GetByID(ctx, l.id)
	if err != nil {
		return 0, 0, translate(l, err)
	}
	before = wallet.Balance
	if err := s.Wallets().ApplyBalance(ctx, wallet, l.delta, l.ceiling); err != nil {
		return 0, 0, translate(l, err)
	}
	return before, wallet.Balance, nil
}

// executeSequential is the best-effort path for stores without multi-record
// transactions. Progress is written to the PENDING record leg by leg so
// Reconcile can settle anything left behind. A debit is never reversed here.
// The legs run under SequentialTimeout; terminal bookkeeping uses ctx.
func (e *Engine) executeSequential(ctx context.Context, m *movement) (*Result, error) {
	e.log.Warn("atomic mutations unavailable, applying legs sequentially",
		zap.String("operation", m.op),
		zap.Int64("amount", m.amount))

	legCtx, cancel := context.WithTimeout(ctx, e.config.SequentialTimeout)
	defer cancel()

	rec, err := e.createPending(legCtx, m)
	if err != nil {
		return nil, err
	}
	txs := e.store.Transactions()

	var ownerBal int64
	if m.source != nil {
		before, after, err := e.applyLegWithRetry(legCtx, m.source, m.op)
		if err != nil {
			e.abandon(ctx, rec, err)
			return nil, err
		}
		rec.BalanceBeforeSource, rec.BalanceAfterSource = &before, &after
		rec.SourceApplied = true
		ownerBal = after

		if err := txs.MarkLeg(legCtx, rec.Reference, repositories.LegSource, before, after); err != nil {
			return nil, e.failAfterDebit(ctx, m, rec, fmt.Errorf("failed to record source leg: %w", err))
		}
	}

	if m.dest != nil {
		before, after, err := e.applyLegWithRetry(legCtx, m.dest, m.op)
		if err != nil {
			if !rec.SourceApplied {
				e.abandon(ctx, rec, err)
				return nil, err
			}
			return nil, e.failAfterDebit(ctx, m, rec, err)
		}
		rec.BalanceBeforeDest, rec.BalanceAfterDest = &before, &after
		rec.DestApplied = true
		if m.ownerIsDest {
			ownerBal = after
		}

		if err := txs.MarkLeg(legCtx, rec.Reference, repositories.LegDest, before, after); err != nil {
			e.log.Error("failed to record destination leg",
				zap.String("reference", rec.Reference),
				zap.Error(err))
		}
	}

	if err := txs.MarkStatus(ctx, rec.Reference, models.TransactionStatusSuccess, ""); err != nil {
		e.log.Error("legs applied but record left pending",
			zap.String("reference", rec.Reference),
			zap.Error(err))
		e.invalidate(ctx, m)
		return nil, apperrors.ErrPendingReconciliation.Wrap(err)
	}
	now := e.now()
	rec.Status = models.TransactionStatusSuccess
	rec.ProcessedAt = &now

	e.settled(ctx, m, rec)
	return &Result{NewBalance: ownerBal, Record: rec}, nil
}

func (e *Engine) createPending(ctx context.Context, m *movement) (*models.Transaction, error) {
	for attempt := 1; ; attempt++ {
		rec := m.newRecord(e.refs.Next(), e.config.Currency, models.TransactionStatusPending)
		err := e.store.Transactions().Create(ctx, rec)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, repositories.ErrDuplicateReference) {
			return nil, apperrors.Internal("failed to record transaction", err)
		}
		if attempt >= e.config.MaxRetries {
			return nil, apperrors.ErrLedgerBusy.Wrap(err)
		}
	}
}

func (e *Engine) applyLegWithRetry(ctx context.Context, l *leg, op string) (int64, int64, error) {
	for attempt := 1; ; attempt++ {
		before, after, err := applyLeg(ctx, e.store, l)
		if !errors.Is(err, repositories.ErrVersionConflict) {
			return before, after, err
		}
		if attempt >= e.config.MaxRetries {
			return 0, 0, apperrors.ErrLedgerBusy.Wrap(err)
		}
		e.metrics.RecordRetry(op)
	}
}

// abandon cancels a PENDING record whose first leg never applied.
func (e *Engine) abandon(ctx context.Context, rec *models.Transaction, cause error) {
	if err := e.store.Transactions().MarkStatus(ctx, rec.Reference, models.TransactionStatusCancelled, ""); err != nil {
		e.log.Error("failed to cancel pending transaction",
			zap.String("reference", rec.Reference),
			zap.NamedError("cause", cause),
			zap.Error(err))
		return
	}
	rec.Status = models.TransactionStatusCancelled
}

// failAfterDebit marks the record FAILED once the source leg is applied and
// the movement cannot complete. The caller sees an internal error, and
// ErrLedgerInconsistent when the record had already left PENDING.
func (e *Engine) failAfterDebit(ctx context.Context, m *movement, rec *models.Transaction, cause error) error {
	e.log.Error("transaction failed after debit",
		zap.String("reference", rec.Reference),
		zap.String("type", string(rec.Type)),
		zap.Int64("amount", rec.Amount),
		zap.Error(cause))
	e.metrics.RecordOperationResult(m.op, resultFailed)
	defer e.invalidate(ctx, m)

	err := e.store.Transactions().MarkStatus(ctx, rec.Reference, models.TransactionStatusFailed, cause.Error())
	switch {
	case errors.Is(err, repositories.ErrInvalidTransition):
		e.log.Error("debit applied under a settled record",
			zap.String("reference", rec.Reference),
			zap.Uint("source_id", m.source.id),
			zap.Int64("debited", -m.source.delta))
		return apperrors.ErrLedgerInconsistent.Wrap(cause)
	case err != nil:
		e.log.Error("failed to mark transaction failed",
			zap.String("reference", rec.Reference),
			zap.Error(err))
	default:
		rec.Status = models.TransactionStatusFailed
		rec.ErrorMessage = cause.Error()
	}
	return apperrors.ErrPendingReconciliation.Wrap(cause)
}

func (e *Engine) settled(ctx context.Context, m *movement, rec *models.Transaction) {
	e.invalidate(ctx, m)
	e.metrics.RecordTransactionVolume(rec.Type, rec.Amount, rec.Fee)
	e.log.Info("transaction settled",
		zap.String("reference", rec.Reference),
		zap.String("type", string(rec.Type)),
		zap.Int64("amount", rec.Amount),
		zap.Int64("fee", rec.Fee))
}

func (e *Engine) invalidate(ctx context.Context, m *movement) {
	if e.cache == nil {
		return
	}
	for _, userID := range m.touchedUsers {
		if err := e.cache.InvalidateWallet(ctx, userID); err != nil {
			e.log.Warn("failed to invalidate wallet cache",
				zap.Uint("user_id", userID),
				zap.Error(err))
		}
	}
}

func sinceMillis(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
