package errors

var (
	ErrInsufficientBalance = &DomainError{
		Kind:    KindInsufficientBalance,
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient wallet balance",
	}
	ErrInvalidAmount = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_AMOUNT",
		Message: "amount must be greater than zero",
	}
	ErrWalletNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
	}
	ErrWalletSuspended = &DomainError{
		Kind:    KindValidation,
		Code:    "WALLET_SUSPENDED",
		Message: "wallet is suspended",
	}
	ErrWalletBlocked = &DomainError{
		Kind:    KindLocked,
		Code:    "WALLET_BLOCKED",
		Message: "wallet is blocked",
	}
	ErrSelfTransfer = &DomainError{
		Kind:    KindValidation,
		Code:    "SELF_TRANSFER",
		Message: "cannot transfer to your own wallet",
	}
	ErrCounterpartNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "COUNTERPART_NOT_FOUND",
		Message: "no wallet is registered for this phone number",
	}
	ErrMerchantNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "MERCHANT_NOT_FOUND",
		Message: "unknown merchant code",
	}
	ErrMaxBalanceExceeded = &DomainError{
		Kind:    KindLimitExceeded,
		Code:    "MAX_BALANCE_EXCEEDED",
		Message: "credit would exceed the destination wallet's maximum balance",
	}
	ErrTransactionNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "TRANSACTION_NOT_FOUND",
		Message: "transaction not found",
	}
)

var (
	ErrAccountNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "ACCOUNT_NOT_FOUND",
		Message: "account not found",
	}
	ErrMerchantInactive = &DomainError{
		Kind:    KindValidation,
		Code:    "MERCHANT_INACTIVE",
		Message: "merchant is not accepting payments",
	}
	ErrMerchantExists = &DomainError{
		Kind:    KindValidation,
		Code:    "MERCHANT_EXISTS",
		Message: "merchant code or owner is already registered",
	}
	ErrLedgerBusy = &DomainError{
		Kind:    KindInternal,
		Code:    "LEDGER_BUSY",
		Message: "wallet is being updated concurrently, try again",
	}
	ErrPendingReconciliation = &DomainError{
		Kind:    KindInternal,
		Code:    "PENDING_RECONCILIATION",
		Message: "transaction failed after the debit was applied and requires reconciliation",
	}
	ErrLedgerInconsistent = &DomainError{
		Kind:    KindInternal,
		Code:    "LEDGER_INCONSISTENT",
		Message: "debit applied but the transaction record was settled concurrently, manual reconciliation required",
	}
	ErrReconcileTooRecent = &DomainError{
		Kind:    KindValidation,
		Code:    "RECONCILE_TOO_RECENT",
		Message: "reconciliation age is below the minimum",
	}
)
