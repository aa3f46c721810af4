package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

func movementsWithSeqs(seqs ...int64) []*domain.Movement {
	out := make([]*domain.Movement, len(seqs))
	for i, seq := range seqs {
		out[i] = &domain.Movement{
			ID:              "mv-" + string(rune('a'+i)),
			Seq:             seq,
			SourceAccountID: "alice",
			DestAccountID:   "bob",
			Amount:          decimal.NewFromInt(1),
			Status:          domain.MovementStatusCompleted,
		}
	}
	return out
}

func TestMovementHandler_List_NextCursor(t *testing.T) {
	queries := &queryServiceStub{movements: movementsWithSeqs(9, 8, 7)}
	h := NewMovementHandler(queries)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/movements?limit=2&account_id=alice", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if queries.lastHistory.Limit != 3 {
		t.Fatalf("expected lookahead limit 3, got %d", queries.lastHistory.Limit)
	}
	if queries.lastHistory.Filter.AccountID != "alice" {
		t.Fatalf("expected account filter, got %q", queries.lastHistory.Filter.AccountID)
	}

	var resp dto.ListMovementsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Movements) != 2 || resp.NextCursor != 8 {
		t.Fatalf("expected 2 movements and cursor 8, got %d and %d", len(resp.Movements), resp.NextCursor)
	}
}

func TestMovementHandler_List_LastPageHasNoCursor(t *testing.T) {
	h := NewMovementHandler(&queryServiceStub{movements: movementsWithSeqs(2, 1)})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/movements?limit=5&cursor=3", nil))

	var resp dto.ListMovementsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Movements) != 2 || resp.NextCursor != 0 {
		t.Fatalf("unexpected page %+v", resp)
	}
}

func TestMovementHandler_List_InvalidQuery(t *testing.T) {
	h := NewMovementHandler(&queryServiceStub{})

	for _, q := range []string{"order=sideways", "from=yesterday", "cursor=-3"} {
		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/movements?"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestMovementHandler_List_HistoryError(t *testing.T) {
	h := NewMovementHandler(&queryServiceStub{historyFn: func(usecase.HistoryInput) error {
		return domain.ErrInvalidTimeRange
	}})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/movements?from=2026-02-01T00:00:00Z&to=2026-01-01T00:00:00Z", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMovementHandler_Get(t *testing.T) {
	h := NewMovementHandler(&queryServiceStub{movements: movementsWithSeqs(1)})

	rec := httptest.NewRecorder()
	h.Get(rec, setChiURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/movements/mv-a", nil), "id", "mv-a"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Get(rec, setChiURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/movements/zzz", nil), "id", "zzz"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
