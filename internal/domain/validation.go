package domain

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxTransferAmount       = "1000000000000" // 1 trillion minor units
	MaxIdempotencyKeyLength = 255
	DefaultPageSize         = 50
	MaxPageSize             = 500
)

var idempotencyKeyRegex = regexp.MustCompile(`^[A-Za-z0-9._:\-]+$`)

// ValidateAmount validates a transfer amount expressed in minor units.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return &TransferError{Kind: ErrInvalidAmount, Amount: amount}
	}

	if !amount.Equal(amount.Truncate(0)) {
		return &TransferError{Kind: ErrInvalidAmount, Amount: amount}
	}

	maxAmount, _ := decimal.NewFromString(MaxTransferAmount)
	if amount.GreaterThan(maxAmount) {
		return &TransferError{Kind: fmt.Errorf("%w: maximum is %s", ErrInvalidAmount, MaxTransferAmount), Amount: amount}
	}

	return nil
}

// ValidateIdempotencyKey validates a caller supplied idempotency key.
func ValidateIdempotencyKey(key string) error {
	if len(key) > MaxIdempotencyKeyLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidIdempotencyKey, MaxIdempotencyKeyLength)
	}

	if !idempotencyKeyRegex.MatchString(key) {
		return fmt.Errorf("%w: contains forbidden characters", ErrInvalidIdempotencyKey)
	}

	return nil
}

// ClampPageSize bounds a requested page size.
func ClampPageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}
