package errors

var (
	ErrInvalidPinFormat = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_PIN_FORMAT",
		Message: "PIN must be 4 to 6 digits",
	}
	ErrPinNotSet = &DomainError{
		Kind:    KindValidation,
		Code:    "PIN_NOT_SET",
		Message: "no PIN configured for this wallet",
	}
	ErrOldPinRequired = &DomainError{
		Kind:    KindValidation,
		Code:    "OLD_PIN_REQUIRED",
		Message: "current PIN is required to change it",
	}
	ErrIncorrectPin = &DomainError{
		Kind:    KindUnauthorized,
		Code:    "INCORRECT_PIN",
		Message: "incorrect PIN",
	}
	ErrInvalidResetCode = &DomainError{
		Kind:    KindUnauthorized,
		Code:    "INVALID_RESET_CODE",
		Message: "reset code is invalid or expired",
	}
)
