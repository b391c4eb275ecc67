package apperrors

import (
	"errors"
	"fmt"
)

// One sentinel per failure kind. Business-rule failures are always detected
// before any mutation is issued; Conflict and Timeout come out of the store
// layer after bounded retries.
var (
	ErrValidation              = errors.New("validation failed")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrPaymentExceedsRemaining = errors.New("payment exceeds remaining loan amount")
	ErrCashWithdrawal          = errors.New("withdrawal from cash account forbidden")
	ErrAccountNotFound         = errors.New("account not found")
	ErrItemNotFound            = errors.New("item not found")
	ErrLoanNotFound            = errors.New("loan not found")
	ErrEntryNotFound           = errors.New("ledger entry not found")
	ErrDuplicate               = errors.New("already exists")
	ErrConflict                = errors.New("concurrent update conflict")
	ErrTimeout                 = errors.New("persistence timeout")
)

// EntityError attaches the offending entity reference to a sentinel so the
// caller can render a precise message ("insufficient balance in esewa_wallet")
// instead of a generic one.
type EntityError struct {
	Err    error
	Entity string
	Ref    string
}

func (e *EntityError) Error() string {
	if e.Ref == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s %s", e.Err.Error(), e.Entity, e.Ref)
}

func (e *EntityError) Unwrap() error { return e.Err }

// WithEntity wraps err with the entity reference it concerns.
func WithEntity(err error, entity, ref string) error {
	return &EntityError{Err: err, Entity: entity, Ref: ref}
}

// Validation builds a ValidationError with a caller-facing message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Ref extracts the entity reference from an error chain, if any.
func Ref(err error) (entity string, ref string, ok bool) {
	var ee *EntityError
	if errors.As(err, &ee) {
		return ee.Entity, ee.Ref, true
	}
	return "", "", false
}
