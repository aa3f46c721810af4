package handler

import (
	"errors"
	"net/http"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/usecase"
)

// LedgerHandler exposes ledger-wide checks.
type LedgerHandler struct {
	reconciliation ReconciliationService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(reconciliation ReconciliationService) *LedgerHandler {
	return &LedgerHandler{reconciliation: reconciliation}
}

// Consistency reports whether balances still sum to the opening grants.
// An inconsistent ledger answers 409 with the totals.
func (h *LedgerHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconciliation.CheckConservation(r.Context())
	if err != nil {
		if errors.Is(err, usecase.ErrInconsistentLedger) && result != nil {
			writeJSON(w, http.StatusConflict, dto.ConsistencyFromResult(result))
			return
		}
		writeDomainError(w, "failed to check ledger consistency", err, false)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromResult(result))
}

// Report replays every account and returns the reconciliation report.
func (h *LedgerHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliation.GenerateReport(r.Context())
	if err != nil {
		writeDomainError(w, "failed to generate report", err, false)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReportFromResult(report))
}
