package errors

var (
	ErrAmountBelowMinimum = &DomainError{
		Kind:    KindValidation,
		Code:    "AMOUNT_BELOW_MINIMUM",
		Message: "amount is below the minimum transaction amount",
	}
	ErrInvalidTier = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_KYC_TIER",
		Message: "unknown KYC tier",
	}
	ErrTypeCeilingExceeded = &DomainError{
		Kind:    KindLimitExceeded,
		Code:    "TYPE_CEILING_EXCEEDED",
		Message: "amount exceeds the ceiling for this operation",
	}
	ErrTransactionLimitExceeded = &DomainError{
		Kind:    KindLimitExceeded,
		Code:    "TRANSACTION_LIMIT_EXCEEDED",
		Message: "amount exceeds the per-transaction limit",
	}
	ErrDailyLimitExceeded = &DomainError{
		Kind:    KindLimitExceeded,
		Code:    "DAILY_LIMIT_EXCEEDED",
		Message: "daily limit exceeded",
	}
	ErrMonthlyLimitExceeded = &DomainError{
		Kind:    KindLimitExceeded,
		Code:    "MONTHLY_LIMIT_EXCEEDED",
		Message: "monthly limit exceeded",
	}
)
