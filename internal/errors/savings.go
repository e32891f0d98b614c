package errors

var (
	ErrGoalNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "SAVINGS_GOAL_NOT_FOUND",
		Message: "savings goal not found",
	}
	ErrGoalClosed = &DomainError{
		Kind:    KindValidation,
		Code:    "SAVINGS_GOAL_CLOSED",
		Message: "savings goal no longer accepts deposits",
	}
	ErrGoalInsufficient = &DomainError{
		Kind:    KindInsufficientBalance,
		Code:    "SAVINGS_GOAL_INSUFFICIENT",
		Message: "savings goal balance is too low",
	}
)
