package handler

import (
	"context"
	"iter"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// TransferService moves funds between accounts.
type TransferService interface {
	Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error)
}

// AccountService opens and lists accounts.
type AccountService interface {
	OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
}

// QueryService serves balances and movement history.
type QueryService interface {
	BalanceOf(ctx context.Context, accountID string) (decimal.Decimal, error)
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
	GetMovement(ctx context.Context, id string) (*domain.Movement, error)
	History(ctx context.Context, input usecase.HistoryInput) (iter.Seq2[*domain.Movement, error], error)
}

// ReconciliationService verifies the ledger.
type ReconciliationService interface {
	CheckConservation(ctx context.Context) (*usecase.ConservationResult, error)
	GenerateReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}
