package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransferRequest_Validate(t *testing.T) {
	tests := []struct {
		name        string
		fromID      string
		toID        string
		amount      decimal.Decimal
		key         string
		expectError error
	}{
		{
			name:   "valid transfer",
			fromID: "account-1",
			toID:   "account-2",
			amount: decimal.NewFromInt(100),
		},
		{
			name:   "valid transfer with key",
			fromID: "account-1",
			toID:   "account-2",
			amount: decimal.NewFromInt(100),
			key:    "order-42:attempt-1",
		},
		{
			name:        "same account",
			fromID:      "account-1",
			toID:        "account-1",
			amount:      decimal.NewFromInt(100),
			expectError: ErrSelfTransfer,
		},
		{
			name:        "zero amount",
			fromID:      "account-1",
			toID:        "account-2",
			amount:      decimal.Zero,
			expectError: ErrInvalidAmount,
		},
		{
			name:        "negative amount",
			fromID:      "account-1",
			toID:        "account-2",
			amount:      decimal.NewFromInt(-100),
			expectError: ErrInvalidAmount,
		},
		{
			name:        "fractional amount",
			fromID:      "account-1",
			toID:        "account-2",
			amount:      decimal.RequireFromString("10.5"),
			expectError: ErrInvalidAmount,
		},
		{
			name:        "amount above maximum",
			fromID:      "account-1",
			toID:        "account-2",
			amount:      decimal.RequireFromString("1000000000001"),
			expectError: ErrInvalidAmount,
		},
		{
			name:        "empty source",
			fromID:      " ",
			toID:        "account-2",
			amount:      decimal.NewFromInt(1),
			expectError: ErrInvalidHandle,
		},
		{
			name:        "bad key",
			fromID:      "account-1",
			toID:        "account-2",
			amount:      decimal.NewFromInt(1),
			key:         "has space",
			expectError: ErrInvalidIdempotencyKey,
		},
		{
			name:        "key too long",
			fromID:      "account-1",
			toID:        "account-2",
			amount:      decimal.NewFromInt(1),
			key:         strings.Repeat("k", MaxIdempotencyKeyLength+1),
			expectError: ErrInvalidIdempotencyKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &TransferRequest{
				SourceAccountID: tt.fromID,
				DestAccountID:   tt.toID,
				Amount:          tt.amount,
				IdempotencyKey:  tt.key,
			}

			err := req.Validate()

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestTransferError_Message(t *testing.T) {
	err := &TransferError{Kind: ErrInsufficientFunds, AccountID: "acc-1", Amount: decimal.NewFromInt(50)}
	if got := err.Error(); got != "insufficient funds: account acc-1, amount 50" {
		t.Fatalf("unexpected message %q", got)
	}

	if got := NotFound("acc-9").Error(); got != "account not found: account acc-9" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestMovement_Delta(t *testing.T) {
	m := &Movement{
		SourceAccountID: "a",
		DestAccountID:   "b",
		Amount:          decimal.NewFromInt(30),
		Status:          MovementStatusCompleted,
	}

	if !m.Delta("a").Equal(decimal.NewFromInt(-30)) {
		t.Fatalf("expected -30 for source, got %s", m.Delta("a"))
	}
	if !m.Delta("b").Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected 30 for destination, got %s", m.Delta("b"))
	}
	if !m.Delta("c").IsZero() {
		t.Fatalf("expected zero for unrelated account, got %s", m.Delta("c"))
	}

	m.Status = MovementStatusRejected
	if !m.Delta("a").IsZero() {
		t.Fatalf("rejected movement must not change balances, got %s", m.Delta("a"))
	}
}

func TestMovementFilter(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)
	later := now.Add(time.Hour)

	m := &Movement{SourceAccountID: "a", DestAccountID: "b", CreatedAt: now}

	if !(MovementFilter{AccountID: "b"}).Matches(m) {
		t.Fatal("expected destination filter to match")
	}
	if (MovementFilter{AccountID: "c"}).Matches(m) {
		t.Fatal("expected unrelated account filter to miss")
	}
	if !(MovementFilter{From: &earlier, To: &later}).Matches(m) {
		t.Fatal("expected time range to match")
	}
	if (MovementFilter{From: &later}).Matches(m) {
		t.Fatal("expected movement before range start to miss")
	}
	if err := (MovementFilter{From: &later, To: &earlier}).Validate(); !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
}

func TestNewMovementEvent(t *testing.T) {
	m := &Movement{ID: "mv-1", Status: MovementStatusRejected, Amount: decimal.NewFromInt(5), Reason: ReasonInsufficientFunds}

	evt := NewMovementEvent("evt-1", m)
	if evt.EventType != EventTypeMovementRejected {
		t.Fatalf("expected rejected event type, got %s", evt.EventType)
	}
	if evt.AggregateID != "mv-1" || evt.Payload["reason"] != ReasonInsufficientFunds {
		t.Fatalf("unexpected event %+v", evt)
	}
}
