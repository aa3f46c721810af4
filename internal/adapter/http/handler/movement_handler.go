package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
)

// MovementHandler serves the movement log.
type MovementHandler struct {
	queries QueryService
}

// NewMovementHandler creates a new MovementHandler.
func NewMovementHandler(queries QueryService) *MovementHandler {
	return &MovementHandler{queries: queries}
}

// List pages through the movement log. Supported query parameters are
// account_id, from, to, order, cursor and limit.
func (h *MovementHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseHistoryQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	q.AccountID = r.URL.Query().Get("account_id")

	writeHistory(w, r, h.queries, q)
}

// Get retrieves a movement by ID.
func (h *MovementHandler) Get(w http.ResponseWriter, r *http.Request) {
	movement, err := h.queries.GetMovement(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get movement", err, false)
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementFromDomain(movement))
}

func parseHistoryQuery(r *http.Request) (dto.HistoryQuery, error) {
	query := r.URL.Query()

	from, err := dto.ParseTime(query.Get("from"))
	if err != nil {
		return dto.HistoryQuery{}, err
	}
	to, err := dto.ParseTime(query.Get("to"))
	if err != nil {
		return dto.HistoryQuery{}, err
	}
	order, err := dto.ParseOrder(query.Get("order"))
	if err != nil {
		return dto.HistoryQuery{}, err
	}
	cursor, err := parseInt64Query(r, "cursor")
	if err != nil {
		return dto.HistoryQuery{}, err
	}

	return dto.HistoryQuery{
		From:   from,
		To:     to,
		Order:  order,
		Cursor: cursor,
		Limit:  domain.ClampPageSize(parseIntQuery(r, "limit", domain.DefaultPageSize)),
	}, nil
}

// writeHistory fetches one page plus a lookahead movement to decide whether
// a next cursor exists.
func writeHistory(w http.ResponseWriter, r *http.Request, queries QueryService, q dto.HistoryQuery) {
	limit := q.Limit
	input := q.ToUseCaseInput()
	input.Limit = limit + 1

	movements, err := queries.History(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to list movements", err, false)
		return
	}

	page := make([]*domain.Movement, 0, limit)
	var nextCursor int64
	for m, err := range movements {
		if err != nil {
			writeDomainError(w, "failed to list movements", err, false)
			return
		}
		if len(page) == limit {
			nextCursor = page[len(page)-1].Seq
			break
		}
		page = append(page, m)
	}

	writeJSON(w, http.StatusOK, dto.ListMovementsResponse{
		Movements:  dto.MovementsFromDomain(page),
		NextCursor: nextCursor,
	})
}
