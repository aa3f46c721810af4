package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementStatus is the outcome of a transfer attempt.
type MovementStatus string

const (
	MovementStatusCompleted MovementStatus = "completed"
	MovementStatusRejected  MovementStatus = "rejected"
)

// Rejection reasons recorded on rejected movements.
const (
	ReasonInsufficientFunds = "insufficient_funds"
)

// Movement is an immutable record of one transfer attempt.
//
// Seq is assigned by the movement log at append time and is strictly
// increasing across the whole log.
type Movement struct {
	Seq             int64
	ID              string
	SourceAccountID string
	DestAccountID   string
	Amount          decimal.Decimal
	Status          MovementStatus
	Reason          string
	IdempotencyKey  string
	// Balances after the movement was applied. Unset for rejected movements.
	SourceBalance decimal.Decimal
	DestBalance   decimal.Decimal
	CreatedAt     time.Time
}

// IsCompleted reports whether the movement changed balances.
func (m *Movement) IsCompleted() bool {
	return m.Status == MovementStatusCompleted
}

// Touches reports whether the movement references accountID.
func (m *Movement) Touches(accountID string) bool {
	return m.SourceAccountID == accountID || m.DestAccountID == accountID
}

// Delta returns the balance change the movement caused on accountID.
func (m *Movement) Delta(accountID string) decimal.Decimal {
	if !m.IsCompleted() {
		return decimal.Zero
	}

	switch accountID {
	case m.SourceAccountID:
		return m.Amount.Neg()
	case m.DestAccountID:
		return m.Amount
	default:
		return decimal.Zero
	}
}

// MovementOrder selects the traversal order of the movement log.
type MovementOrder int

const (
	OrderNewestFirst MovementOrder = iota
	OrderOldestFirst
)

// MovementFilter narrows a movement log query. Zero values mean "no filter".
type MovementFilter struct {
	AccountID string
	From      *time.Time
	To        *time.Time
	Order     MovementOrder
}

// Validate checks the filter is well formed.
func (f MovementFilter) Validate() error {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return ErrInvalidTimeRange
	}
	return nil
}

// Matches reports whether m satisfies the filter.
func (f MovementFilter) Matches(m *Movement) bool {
	if f.AccountID != "" && !m.Touches(f.AccountID) {
		return false
	}
	if f.From != nil && m.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && m.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// IdempotencyRecord binds a caller supplied key to the movement it produced.
type IdempotencyRecord struct {
	Key        string
	MovementID string
	CreatedAt  time.Time
}
