package transaction

import (
	"time"

	"momo/internal/models"
	"momo/internal/repositories"

	"go.uber.org/zap"
)

// Result is returned by every money-moving operation.
type Result struct {
	// NewBalance is the caller's wallet balance once the operation settled.
	NewBalance int64               `json:"new_balance"`
	Record     *models.Transaction `json:"transaction"`
}

// ReconcileReport summarizes one sweep over stale PENDING records.
type ReconcileReport struct {
	Scanned   int `json:"scanned"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Failed    int `json:"failed"`
}

// Config holds configuration for transaction processing
type Config struct {
	Currency   string
	MaxRetries int
	// SweepBatch bounds how many stale records one Reconcile call inspects.
	SweepBatch int
	// MinReconcileAge is the youngest PENDING record a sweep may settle.
	MinReconcileAge time.Duration
	// SequentialTimeout bounds the legs of the sequential path and is kept
	// below MinReconcileAge.
	SequentialTimeout time.Duration
}

// Dependencies are the collaborators the engine orchestrates.
// Cache, Metrics and Logger are optional.
type Dependencies struct {
	Store      repositories.LedgerStore
	Users      repositories.UserRepository
	Merchants  repositories.MerchantRepository
	Pins       PinVerifier
	Limits     LimitChecker
	Fees       FeeCalculator
	References ReferenceGenerator
	Cache      WalletCache
	Metrics    MetricsCollector
	Logger     *zap.Logger
}
