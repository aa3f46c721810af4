package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TransferRequest is a validated intent to move Amount from source to destination.
type TransferRequest struct {
	SourceAccountID string
	DestAccountID   string
	Amount          decimal.Decimal
	IdempotencyKey  string
}

// Validate enforces every field constraint before the request reaches storage.
func (r *TransferRequest) Validate() error {
	if strings.TrimSpace(r.SourceAccountID) == "" || strings.TrimSpace(r.DestAccountID) == "" {
		return ErrInvalidHandle
	}

	if r.SourceAccountID == r.DestAccountID {
		return &TransferError{Kind: ErrSelfTransfer, AccountID: r.SourceAccountID}
	}

	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}

	if r.IdempotencyKey != "" {
		if err := ValidateIdempotencyKey(r.IdempotencyKey); err != nil {
			return err
		}
	}

	return nil
}

// TransferResult is what the engine hands back for every attempt that reached storage.
type TransferResult struct {
	Movement *Movement
	// Source and Dest hold post-commit snapshots; nil for rejected movements.
	Source *Account
	Dest   *Account
	// Duplicate is set when the movement was produced by an earlier request
	// carrying the same idempotency key.
	Duplicate bool
}
