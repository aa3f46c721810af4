package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iho/walletledger/internal/domain"
)

// ErrInconsistentLedger is returned when balances no longer sum to the opening grants.
var ErrInconsistentLedger = errors.New("ledger is inconsistent: balances do not sum to opening grants")

// ReconciliationUseCase verifies the ledger against the movement log.
type ReconciliationUseCase struct {
	accountRepo  AccountRepository
	movementRepo MovementRepository
	ledgerRepo   LedgerRepository
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	movementRepo MovementRepository,
	ledgerRepo LedgerRepository,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo:  accountRepo,
		movementRepo: movementRepo,
		ledgerRepo:   ledgerRepo,
	}
}

// ConservationResult reports the ledger-wide balance check.
type ConservationResult struct {
	TotalBalance decimal.Decimal
	TotalOpening decimal.Decimal
	Consistent   bool
}

// CheckConservation verifies that no transfer created or destroyed value.
func (uc *ReconciliationUseCase) CheckConservation(ctx context.Context) (*ConservationResult, error) {
	totalBalance, totalOpening, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	result := &ConservationResult{
		TotalBalance: totalBalance,
		TotalOpening: totalOpening,
		Consistent:   totalBalance.Equal(totalOpening),
	}
	if !result.Consistent {
		return result, fmt.Errorf("%w: balances=%s opening=%s", ErrInconsistentLedger, totalBalance, totalOpening)
	}

	return result, nil
}

// ReconciliationResult represents the result of replaying one account.
type ReconciliationResult struct {
	AccountID         string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	Movements         int
	// OutOfOrderSeq is the first movement whose recorded balance disagrees
	// with the running replay. Zero when every step matched.
	OutOfOrderSeq int64
	IsReconciled  bool
	LastChecked   time.Time
}

// ReplayAccount recomputes a balance from the opening grant and every
// completed movement touching the account, oldest first.
func (uc *ReconciliationUseCase) ReplayAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	result := &ReconciliationResult{
		AccountID:       accountID,
		RecordedBalance: account.Balance,
	}

	running := account.OpeningBalance
	movements := pageMovements(ctx, uc.movementRepo, HistoryInput{
		Filter: domain.MovementFilter{AccountID: accountID, Order: domain.OrderOldestFirst},
	}, DefaultHistoryPageSize)

	for m, err := range movements {
		if err != nil {
			return nil, err
		}
		result.Movements++
		if !m.IsCompleted() {
			continue
		}

		running = running.Add(m.Delta(accountID))

		recorded := m.DestBalance
		if m.SourceAccountID == accountID {
			recorded = m.SourceBalance
		}
		if result.OutOfOrderSeq == 0 && !recorded.Equal(running) {
			result.OutOfOrderSeq = m.Seq
		}
	}

	result.CalculatedBalance = running
	result.Difference = account.Balance.Sub(running)
	result.IsReconciled = result.Difference.IsZero() && result.OutOfOrderSeq == 0
	result.LastChecked = time.Now().UTC()

	return result, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	LedgerConsistent   bool
	TotalBalance       decimal.Decimal
	TotalOpening       decimal.Decimal
	CheckedAt          time.Time
}

// GenerateReport replays every account in parallel and checks conservation.
func (uc *ReconciliationUseCase) GenerateReport(ctx context.Context) (*ReconciliationReport, error) {
	report := &ReconciliationReport{Discrepancies: make([]*ReconciliationResult, 0)}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)

	for offset := 0; ; offset += domain.MaxPageSize {
		accounts, err := uc.accountRepo.List(ctx, domain.MaxPageSize, offset)
		if err != nil {
			_ = g.Wait()
			return nil, err
		}

		for _, account := range accounts {
			accountID := account.ID
			g.Go(func() error {
				result, err := uc.ReplayAccount(gctx, accountID)
				if err != nil {
					return fmt.Errorf("failed to reconcile account %s: %w", accountID, err)
				}

				mu.Lock()
				defer mu.Unlock()
				report.TotalAccounts++
				if result.IsReconciled {
					report.ReconciledAccounts++
				} else {
					report.Discrepancies = append(report.Discrepancies, result)
				}
				return nil
			})
		}

		if len(accounts) < domain.MaxPageSize {
			break
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	conservation, err := uc.CheckConservation(ctx)
	if err != nil && !errors.Is(err, ErrInconsistentLedger) {
		return nil, err
	}

	report.LedgerConsistent = conservation.Consistent
	report.TotalBalance = conservation.TotalBalance
	report.TotalOpening = conservation.TotalOpening
	report.CheckedAt = time.Now().UTC()

	return report, nil
}
