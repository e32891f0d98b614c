package transaction

import "time"

// Default configuration values
const (
	DefaultCurrency          = "XAF"
	DefaultMaxRetries        = 5
	DefaultSweepBatch        = 500
	DefaultMinReconcileAge   = 5 * time.Minute
	DefaultSequentialTimeout = time.Minute
)

// Operation names used in logs and metrics.
const (
	opDeposit         = "deposit"
	opWithdraw        = "withdraw"
	opTransfer        = "transfer"
	opMerchantPayment = "merchant_payment"
	opSavingsDeposit  = "savings_deposit"
	opSavingsWithdraw = "savings_withdraw"
)

// Metric results
const (
	resultSuccess  = "success"
	resultRejected = "rejected"
	resultFailed   = "failed"
)
