package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidHandle   = errors.New("account handle must not be empty")

	// Transfer errors
	ErrSelfTransfer          = errors.New("cannot transfer to same account")
	ErrInvalidAmount         = errors.New("amount must be a positive whole number of minor units")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInvalidIdempotencyKey = errors.New("invalid idempotency key")
	ErrMovementNotFound      = errors.New("movement not found")

	// Storage errors
	ErrTimeout            = errors.New("transfer timed out")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrDuplicateRequest signals an idempotency key replay. The engine never
	// surfaces it; it returns the original movement instead.
	ErrDuplicateRequest = errors.New("duplicate request")

	// ErrRetrySafe marks a failure that may be retried without risk of a
	// second application, because the request is guarded by an idempotency key.
	ErrRetrySafe = errors.New("retry safe")

	// ErrIdempotencyConflict is returned when a key is reused for a different transfer.
	ErrIdempotencyConflict = errors.New("idempotency key reused with different parameters")

	// Query errors
	ErrInvalidTimeRange = errors.New("time range start must not be after end")
)

// TransferError carries the offending account and amount alongside the error kind.
type TransferError struct {
	Kind      error
	AccountID string
	Amount    decimal.Decimal
}

func (e *TransferError) Error() string {
	switch {
	case e.AccountID != "" && !e.Amount.IsZero():
		return fmt.Sprintf("%s: account %s, amount %s", e.Kind, e.AccountID, e.Amount)
	case e.AccountID != "":
		return fmt.Sprintf("%s: account %s", e.Kind, e.AccountID)
	case !e.Amount.IsZero():
		return fmt.Sprintf("%s: amount %s", e.Kind, e.Amount)
	default:
		return e.Kind.Error()
	}
}

func (e *TransferError) Unwrap() error {
	return e.Kind
}

// NotFound builds an ErrAccountNotFound error for the given handle.
func NotFound(accountID string) error {
	return &TransferError{Kind: ErrAccountNotFound, AccountID: accountID}
}

// IsRetrySafe reports whether err was marked as safe to retry.
func IsRetrySafe(err error) bool {
	return errors.Is(err, ErrRetrySafe)
}
