package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/domain"
)

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transfers TransferService
	accounts  QueryService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transfers TransferService, accounts QueryService) *TransferHandler {
	return &TransferHandler{transfers: transfers, accounts: accounts}
}

// Create moves funds. The Idempotency-Key header makes the request safe to
// resend: a repeat returns the original movement with 200 instead of 201.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	keyed := key != ""

	req, err := body.ToTransferRequest(key)
	if err != nil {
		writeDomainError(w, "invalid transfer", err, keyed)
		return
	}

	if caller, ok := middleware.CallerFromContext(r.Context()); ok {
		source, err := h.accounts.GetAccount(r.Context(), req.SourceAccountID)
		if err != nil {
			writeDomainError(w, "failed to load source account", err, keyed)
			return
		}
		if !caller.CanTransferFrom(source) {
			writeDomainError(w, "transfer not allowed", domain.ErrForbidden, keyed)
			return
		}
	}

	result, err := h.transfers.Transfer(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) && result != nil {
			writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
				Error:     "insufficient funds",
				Message:   err.Error(),
				AccountID: req.SourceAccountID,
				Amount:    &req.Amount,
				Movement:  dto.MovementFromDomain(result.Movement),
			})
			return
		}

		writeDomainError(w, "failed to transfer", err, keyed)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, dto.TransferFromDomain(result))
}
