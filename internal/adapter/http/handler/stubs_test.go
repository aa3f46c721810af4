package handler

import (
	"context"
	"iter"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

type transferServiceStub struct {
	transferFn func(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error)
}

func (s *transferServiceStub) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error) {
	return s.transferFn(ctx, req)
}

type accountServiceStub struct {
	openFn func(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	getFn  func(ctx context.Context, id string) (*domain.Account, error)
	listFn func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
}

func (s *accountServiceStub) OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error) {
	return s.openFn(ctx, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.getFn(ctx, id)
}

func (s *accountServiceStub) ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
	return s.listFn(ctx, input)
}

type queryServiceStub struct {
	accounts  map[string]*domain.Account
	movements []*domain.Movement
	historyFn func(input usecase.HistoryInput) error

	lastHistory usecase.HistoryInput
}

func (s *queryServiceStub) BalanceOf(ctx context.Context, accountID string) (decimal.Decimal, error) {
	a, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return a.Balance, nil
}

func (s *queryServiceStub) GetAccount(_ context.Context, accountID string) (*domain.Account, error) {
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, domain.NotFound(accountID)
	}
	return a, nil
}

func (s *queryServiceStub) GetMovement(_ context.Context, id string) (*domain.Movement, error) {
	for _, m := range s.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, domain.ErrMovementNotFound
}

func (s *queryServiceStub) History(_ context.Context, input usecase.HistoryInput) (iter.Seq2[*domain.Movement, error], error) {
	s.lastHistory = input
	if s.historyFn != nil {
		if err := s.historyFn(input); err != nil {
			return nil, err
		}
	}

	return func(yield func(*domain.Movement, error) bool) {
		n := 0
		for _, m := range s.movements {
			if input.Limit > 0 && n == input.Limit {
				return
			}
			n++
			if !yield(m, nil) {
				return
			}
		}
	}, nil
}

type reconciliationServiceStub struct {
	checkFn  func(ctx context.Context) (*usecase.ConservationResult, error)
	reportFn func(ctx context.Context) (*usecase.ReconciliationReport, error)
}

func (s *reconciliationServiceStub) CheckConservation(ctx context.Context) (*usecase.ConservationResult, error) {
	return s.checkFn(ctx)
}

func (s *reconciliationServiceStub) GenerateReport(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return s.reportFn(ctx)
}

func setChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
