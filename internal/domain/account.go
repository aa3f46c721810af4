package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultOpeningGrant is the balance a freshly opened account starts with.
var DefaultOpeningGrant = decimal.NewFromInt(100)

// Account represents a custodial account holding a non-negative balance.
type Account struct {
	ID             string
	OwnerID        string
	Balance        decimal.Decimal
	OpeningBalance decimal.Decimal
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidateDebit checks if account can be debited by amount without going negative.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return &TransferError{Kind: ErrInsufficientFunds, AccountID: a.ID, Amount: amount}
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// Clone returns a copy that shares no mutable state with a.
func (a *Account) Clone() *Account {
	cp := *a
	return &cp
}
