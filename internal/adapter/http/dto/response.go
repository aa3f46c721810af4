package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"owner_id,omitempty"`
	Balance        decimal.Decimal `json:"balance"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Version        int64           `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:             a.ID,
		OwnerID:        a.OwnerID,
		Balance:        a.Balance,
		OpeningBalance: a.OpeningBalance,
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// BalanceResponse is the answer to a balance lookup.
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// MovementResponse represents a movement in API responses.
type MovementResponse struct {
	ID              string           `json:"id"`
	Seq             int64            `json:"seq"`
	SourceAccountID string           `json:"source_account_id"`
	DestAccountID   string           `json:"dest_account_id"`
	Amount          decimal.Decimal  `json:"amount"`
	Status          string           `json:"status"`
	Reason          string           `json:"reason,omitempty"`
	IdempotencyKey  string           `json:"idempotency_key,omitempty"`
	SourceBalance   *decimal.Decimal `json:"source_balance,omitempty"`
	DestBalance     *decimal.Decimal `json:"dest_balance,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// MovementFromDomain converts domain movement to response.
func MovementFromDomain(m *domain.Movement) *MovementResponse {
	resp := &MovementResponse{
		ID:              m.ID,
		Seq:             m.Seq,
		SourceAccountID: m.SourceAccountID,
		DestAccountID:   m.DestAccountID,
		Amount:          m.Amount,
		Status:          string(m.Status),
		Reason:          m.Reason,
		IdempotencyKey:  m.IdempotencyKey,
		CreatedAt:       m.CreatedAt,
	}
	if m.IsCompleted() {
		src, dst := m.SourceBalance, m.DestBalance
		resp.SourceBalance = &src
		resp.DestBalance = &dst
	}
	return resp
}

// MovementsFromDomain converts domain movements to responses.
func MovementsFromDomain(movements []*domain.Movement) []*MovementResponse {
	result := make([]*MovementResponse, len(movements))
	for i, m := range movements {
		result[i] = MovementFromDomain(m)
	}
	return result
}

// ListMovementsResponse wraps a page of movements. NextCursor is set when
// more movements may follow.
type ListMovementsResponse struct {
	Movements  []*MovementResponse `json:"movements"`
	NextCursor int64               `json:"next_cursor,omitempty"`
}

// TransferResponse is the answer to a transfer request.
type TransferResponse struct {
	Movement  *MovementResponse `json:"movement"`
	Source    *AccountResponse  `json:"source,omitempty"`
	Dest      *AccountResponse  `json:"dest,omitempty"`
	Duplicate bool              `json:"duplicate"`
}

// TransferFromDomain converts a transfer result to response.
func TransferFromDomain(r *domain.TransferResult) *TransferResponse {
	resp := &TransferResponse{
		Movement:  MovementFromDomain(r.Movement),
		Duplicate: r.Duplicate,
	}
	if r.Source != nil {
		resp.Source = AccountFromDomain(r.Source)
	}
	if r.Dest != nil {
		resp.Dest = AccountFromDomain(r.Dest)
	}
	return resp
}

// ConsistencyResponse reports the conservation check.
type ConsistencyResponse struct {
	Status       string          `json:"status"`
	Consistent   bool            `json:"consistent"`
	TotalBalance decimal.Decimal `json:"total_balance"`
	TotalOpening decimal.Decimal `json:"total_opening"`
}

// ConsistencyFromResult converts a conservation result to response.
func ConsistencyFromResult(r *usecase.ConservationResult) *ConsistencyResponse {
	status := "consistent"
	if !r.Consistent {
		status = "inconsistent"
	}
	return &ConsistencyResponse{
		Status:       status,
		Consistent:   r.Consistent,
		TotalBalance: r.TotalBalance,
		TotalOpening: r.TotalOpening,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error     string           `json:"error"`
	Message   string           `json:"message,omitempty"`
	AccountID string           `json:"account_id,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	// Retryable tells the client the same request may be sent again safely.
	Retryable bool              `json:"retryable,omitempty"`
	Movement  *MovementResponse `json:"movement,omitempty"`
}

// DiscrepancyResponse describes an account whose replay disagrees with its balance.
type DiscrepancyResponse struct {
	AccountID         string          `json:"account_id"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
	OutOfOrderSeq     int64           `json:"out_of_order_seq,omitempty"`
}

// ReportResponse is the full reconciliation report.
type ReportResponse struct {
	TotalAccounts      int                    `json:"total_accounts"`
	ReconciledAccounts int                    `json:"reconciled_accounts"`
	LedgerConsistent   bool                   `json:"ledger_consistent"`
	TotalBalance       decimal.Decimal        `json:"total_balance"`
	TotalOpening       decimal.Decimal        `json:"total_opening"`
	Discrepancies      []*DiscrepancyResponse `json:"discrepancies"`
	CheckedAt          time.Time              `json:"checked_at"`
}

// ReportFromResult converts a reconciliation report to response.
func ReportFromResult(r *usecase.ReconciliationReport) *ReportResponse {
	resp := &ReportResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		LedgerConsistent:   r.LedgerConsistent,
		TotalBalance:       r.TotalBalance,
		TotalOpening:       r.TotalOpening,
		Discrepancies:      make([]*DiscrepancyResponse, len(r.Discrepancies)),
		CheckedAt:          r.CheckedAt,
	}
	for i, d := range r.Discrepancies {
		resp.Discrepancies[i] = &DiscrepancyResponse{
			AccountID:         d.AccountID,
			RecordedBalance:   d.RecordedBalance,
			CalculatedBalance: d.CalculatedBalance,
			Difference:        d.Difference,
			OutOfOrderSeq:     d.OutOfOrderSeq,
		}
	}
	return resp
}
