package usecase

import (
	"context"
	"iter"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// QueryUseCase serves balances and movement history. It never writes.
type QueryUseCase struct {
	accountRepo  AccountRepository
	movementRepo MovementRepository
	pageSize     int
}

// NewQueryUseCase creates a new QueryUseCase.
func NewQueryUseCase(accountRepo AccountRepository, movementRepo MovementRepository) *QueryUseCase {
	return &QueryUseCase{
		accountRepo:  accountRepo,
		movementRepo: movementRepo,
		pageSize:     DefaultHistoryPageSize,
	}
}

// HistoryInput selects a slice of the movement log.
type HistoryInput struct {
	Filter domain.MovementFilter
	// Cursor resumes after the movement with this seq. Zero starts at the
	// beginning of the chosen order.
	//
	// Seqs are assigned when a movement is appended, before its transaction
	// commits. Movements of one account commit in seq order because they
	// share that account's lock, so an account-filtered cursor never misses
	// one. Unfiltered history has no such guarantee: a lower seq committed
	// after a client paged past it is skipped by that client's oldest-first
	// cursor.
	Cursor int64
	// Limit caps the number of yielded movements. Zero means no cap.
	Limit int
}

// BalanceOf returns the committed balance of an account.
func (uc *QueryUseCase) BalanceOf(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// GetAccount returns a committed account snapshot.
func (uc *QueryUseCase) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, accountID)
}

// GetMovement returns a single movement by id.
func (uc *QueryUseCase) GetMovement(ctx context.Context, id string) (*domain.Movement, error) {
	return uc.movementRepo.GetByID(ctx, id)
}

// History returns a lazy iterator over the movements matching input.
//
// Pages are fetched on demand, so stopping early costs nothing beyond the
// current page. Each call to the returned sequence starts over from
// input.Cursor. An unknown account in the filter fails up front with
// domain.ErrAccountNotFound.
func (uc *QueryUseCase) History(ctx context.Context, input HistoryInput) (iter.Seq2[*domain.Movement, error], error) {
	if err := input.Filter.Validate(); err != nil {
		return nil, err
	}

	if input.Filter.AccountID != "" {
		if _, err := uc.accountRepo.GetByID(ctx, input.Filter.AccountID); err != nil {
			return nil, err
		}
	}

	return pageMovements(ctx, uc.movementRepo, input, uc.pageSize), nil
}

// pageMovements walks the movement log page by page in seq order.
func pageMovements(ctx context.Context, repo MovementRepository, input HistoryInput, pageSize int) iter.Seq2[*domain.Movement, error] {
	if input.Limit > 0 && input.Limit < pageSize {
		pageSize = input.Limit
	}

	return func(yield func(*domain.Movement, error) bool) {
		cursor := input.Cursor
		emitted := 0

		for {
			page, err := repo.List(ctx, input.Filter, cursor, pageSize)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, m := range page {
				if !yield(m, nil) {
					return
				}
				cursor = m.Seq
				emitted++
				if input.Limit > 0 && emitted >= input.Limit {
					return
				}
			}

			if len(page) < pageSize {
				return
			}
		}
	}
}
