package merchant

import apperrors "momo/internal/errors"

var (
	ErrInvalidCode   = apperrors.Validation("INVALID_MERCHANT_CODE", "merchant code must be 3 to 16 letters or digits")
	ErrOwnerNotFound = apperrors.ErrAccountNotFound.WithMessage("merchant owner has no wallet")
)
