package repositories

import (
	"context"

	"gorm.io/gorm"
)

// LedgerStore bundles the repositories a money movement mutates and
// runs groups of mutations as one unit.
type LedgerStore interface {
	Wallets() WalletRepository
	Transactions() TransactionRepository
	Savings() SavingsRepository

	// ExecuteInTransaction runs fn against a store bound to one database transaction.
	// It returns ErrAtomicUnsupported when the store was opened without atomic support.
	ExecuteInTransaction(ctx context.Context, fn func(LedgerStore) error) error
}

type ledgerStore struct {
	db     *gorm.DB
	atomic bool
}

// NewLedgerStore wraps db. With atomic false, ExecuteInTransaction refuses to run and
// callers must fall back to sequential writes.
func NewLedgerStore(db *gorm.DB, atomic bool) LedgerStore {
	return &ledgerStore{db: db, atomic: atomic}
}

func (s *ledgerStore) Wallets() WalletRepository {
	return NewWalletRepository(s.db)
}

func (s *ledgerStore) Transactions() TransactionRepository {
	return NewTransactionRepository(s.db)
}

func (s *ledgerStore) Savings() SavingsRepository {
	return NewSavingsRepository(s.db)
}

func (s *ledgerStore) ExecuteInTransaction(ctx context.Context, fn func(LedgerStore) error) error {
	if !s.atomic {
		return ErrAtomicUnsupported
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerStore{db: tx, atomic: true})
	})
}
