package dto

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

func TestOpenAccountRequest_ToUseCaseInput(t *testing.T) {
	req := &OpenAccountRequest{OwnerID: "user-1"}

	if got := req.ToUseCaseInput(); got.OwnerID != "user-1" {
		t.Fatalf("ToUseCaseInput() = %+v", got)
	}
}

func TestCreateTransferRequest_ToTransferRequest(t *testing.T) {
	tests := []struct {
		name        string
		request     *CreateTransferRequest
		key         string
		want        domain.TransferRequest
		expectError bool
	}{
		{
			name: "valid amount",
			request: &CreateTransferRequest{
				SourceAccountID: " acc-1 ",
				DestAccountID:   "acc-2",
				Amount:          "30",
			},
			key: "k1",
			want: domain.TransferRequest{
				SourceAccountID: "acc-1",
				DestAccountID:   "acc-2",
				Amount:          decimal.NewFromInt(30),
				IdempotencyKey:  "k1",
			},
		},
		{
			name:        "invalid amount",
			request:     &CreateTransferRequest{SourceAccountID: "a", DestAccountID: "b", Amount: "ten"},
			expectError: true,
		},
		{
			name:        "empty amount",
			request:     &CreateTransferRequest{SourceAccountID: "a", DestAccountID: "b"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.request.ToTransferRequest(tt.key)
			if tt.expectError {
				if !errors.Is(err, domain.ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.SourceAccountID != tt.want.SourceAccountID ||
				got.DestAccountID != tt.want.DestAccountID ||
				got.IdempotencyKey != tt.want.IdempotencyKey ||
				!got.Amount.Equal(tt.want.Amount) {
				t.Fatalf("ToTransferRequest() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseOrder(t *testing.T) {
	for in, want := range map[string]domain.MovementOrder{
		"":       domain.OrderNewestFirst,
		"desc":   domain.OrderNewestFirst,
		"ASC":    domain.OrderOldestFirst,
		"oldest": domain.OrderOldestFirst,
	} {
		got, err := ParseOrder(in)
		if err != nil || got != want {
			t.Fatalf("ParseOrder(%q) = %v, %v; want %v", in, got, err, want)
		}
	}

	if _, err := ParseOrder("sideways"); err == nil {
		t.Fatalf("expected error for unknown order")
	}
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("")
	if err != nil || got != nil {
		t.Fatalf("expected nil for empty input, got %v, %v", got, err)
	}

	got, err = ParseTime("2026-03-01T10:00:00Z")
	if err != nil || !got.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected parse result %v, %v", got, err)
	}

	if _, err := ParseTime("yesterday"); err == nil {
		t.Fatalf("expected error for malformed timestamp")
	}
}

func TestHistoryQuery_ToUseCaseInput(t *testing.T) {
	from := time.Now()
	q := HistoryQuery{AccountID: "acc-1", From: &from, Order: domain.OrderOldestFirst, Cursor: 7, Limit: 20}

	in := q.ToUseCaseInput()
	if in.Filter.AccountID != "acc-1" || in.Filter.From != &from || in.Filter.Order != domain.OrderOldestFirst {
		t.Fatalf("unexpected filter %+v", in.Filter)
	}
	if in.Cursor != 7 || in.Limit != 20 {
		t.Fatalf("unexpected paging %+v", in)
	}
}
