// Package errors defines the domain error taxonomy shared by the ledger services
// and the HTTP layer.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a DomainError for callers that only need the category.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindLocked
	KindInsufficientBalance
	KindLimitExceeded
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindLocked:
		return "locked"
	case KindInsufficientBalance:
		return "insufficient_balance"
	case KindLimitExceeded:
		return "limit_exceeded"
	case KindNotFound:
		return "not_found"
	}
	return "internal"
}

// DomainError is the structured error returned at the service boundary.
type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	// Remaining is set on Locked errors; zero means the lock is permanent.
	Remaining time.Duration
	Err       error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Code so package-level sentinels work with errors.Is after wrapping.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *DomainError) WithMessage(format string, args ...interface{}) *DomainError {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}

// Wrap returns a copy of e carrying cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	c := *e
	c.Err = cause
	return &c
}

func Validation(code, format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(code, format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindUnauthorized, Code: code, Message: fmt.Sprintf(format, args...)}
}

func LimitExceeded(code, format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindLimitExceeded, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(code, format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Locked builds a lockout error. remaining == 0 denotes a permanent lock.
func Locked(code string, remaining time.Duration) *DomainError {
	msg := "wallet is locked until an administrator unlocks it"
	if remaining > 0 {
		msg = fmt.Sprintf("wallet is locked, try again in %s", remaining.Round(time.Second))
	}
	return &DomainError{Kind: KindLocked, Code: code, Message: msg, Remaining: remaining}
}

// Internal wraps a storage or infrastructure failure.
func Internal(message string, cause error) *DomainError {
	return &DomainError{Kind: KindInternal, Code: "INTERNAL", Message: message, Err: cause}
}

// As extracts the DomainError from err, if any.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// KindOf returns the kind of err; errors outside the taxonomy are internal.
func KindOf(err error) Kind {
	if de, ok := As(err); ok {
		return de.Kind
	}
	return KindInternal
}

// HTTPStatus maps err onto the status code the controllers return.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInsufficientBalance, KindLimitExceeded:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindLocked:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
