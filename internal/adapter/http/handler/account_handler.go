package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accounts AccountService
	queries  QueryService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts AccountService, queries QueryService) *AccountHandler {
	return &AccountHandler{accounts: accounts, queries: queries}
}

// Open opens an account funded with the opening grant. Authenticated owners
// may only open accounts for themselves.
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if caller, ok := middleware.CallerFromContext(r.Context()); ok {
		if !caller.CanOpenAccounts() {
			writeDomainError(w, "account opening not allowed", domain.ErrForbidden, false)
			return
		}
		if req.OwnerID == "" {
			req.OwnerID = caller.Subject
		}
		if caller.Role != domain.RoleAdmin && req.OwnerID != caller.Subject {
			writeDomainError(w, "account opening not allowed", domain.ErrForbidden, false)
			return
		}
	}

	account, err := h.accounts.OpenAccount(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to open account", err, false)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get account", err, false)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts with pagination.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := domain.ClampPageSize(parseIntQuery(r, "limit", domain.DefaultPageSize))
	offset := parseIntQuery(r, "offset", 0)

	accounts, err := h.accounts.ListAccounts(r.Context(), usecase.ListAccountsInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeDomainError(w, "failed to list accounts", err, false)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    int64(len(accounts)),
	})
}

// Balance returns the committed balance of an account.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	balance, err := h.queries.BalanceOf(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get balance", err, false)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{AccountID: id, Balance: balance})
}

// Movements lists the movements touching an account.
func (h *AccountHandler) Movements(w http.ResponseWriter, r *http.Request) {
	q, err := parseHistoryQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	q.AccountID = chi.URLParam(r, "id")

	writeHistory(w, r, h.queries, q)
}
