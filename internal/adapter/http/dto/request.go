package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// OpenAccountRequest represents a request to open an account.
type OpenAccountRequest struct {
	OwnerID string `json:"owner_id"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenAccountRequest) ToUseCaseInput() usecase.OpenAccountInput {
	return usecase.OpenAccountInput{OwnerID: r.OwnerID}
}

// CreateTransferRequest represents a request to move funds. Amount is a
// decimal string in minor units.
type CreateTransferRequest struct {
	SourceAccountID string `json:"source_account_id"`
	DestAccountID   string `json:"dest_account_id"`
	Amount          string `json:"amount"`
}

// ToTransferRequest converts to a domain transfer request keyed by
// idempotencyKey. Field constraints are checked by the engine.
func (r *CreateTransferRequest) ToTransferRequest(idempotencyKey string) (domain.TransferRequest, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(r.Amount))
	if err != nil {
		return domain.TransferRequest{}, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, r.Amount)
	}

	return domain.TransferRequest{
		SourceAccountID: strings.TrimSpace(r.SourceAccountID),
		DestAccountID:   strings.TrimSpace(r.DestAccountID),
		Amount:          amount,
		IdempotencyKey:  strings.TrimSpace(idempotencyKey),
	}, nil
}

// HistoryQuery holds the parsed query string of a movement listing.
type HistoryQuery struct {
	AccountID string
	From      *time.Time
	To        *time.Time
	Order     domain.MovementOrder
	Cursor    int64
	Limit     int
}

// ToUseCaseInput converts to use case input.
func (q HistoryQuery) ToUseCaseInput() usecase.HistoryInput {
	return usecase.HistoryInput{
		Filter: domain.MovementFilter{
			AccountID: q.AccountID,
			From:      q.From,
			To:        q.To,
			Order:     q.Order,
		},
		Cursor: q.Cursor,
		Limit:  q.Limit,
	}
}

// ParseOrder maps the "order" query value. Empty means newest first.
func ParseOrder(s string) (domain.MovementOrder, error) {
	switch strings.ToLower(s) {
	case "", "desc", "newest":
		return domain.OrderNewestFirst, nil
	case "asc", "oldest":
		return domain.OrderOldestFirst, nil
	default:
		return 0, fmt.Errorf("unknown order %q", s)
	}
}

// ParseTime parses an optional RFC 3339 timestamp.
func ParseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return &t, nil
}
