package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// AccountRepository is the Ledger Store: the single source of truth for balances.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	// ApplyTransfer locks both accounts in canonical (sorted handle) order,
	// re-checks the source balance under that lock and writes the debit and
	// credit inside tx. It returns post-transfer snapshots of both accounts.
	ApplyTransfer(ctx context.Context, tx Transaction, sourceID, destID string, amount decimal.Decimal, at time.Time) (source, dest *domain.Account, err error)
}

// MovementRepository is the append-only Movement Log.
type MovementRepository interface {
	// Append assigns m.Seq and records m inside tx.
	Append(ctx context.Context, tx Transaction, m *domain.Movement) error
	GetByID(ctx context.Context, id string) (*domain.Movement, error)
	// List returns at most limit movements matching filter, strictly past
	// cursor in the filter's order. A zero cursor starts from the beginning.
	List(ctx context.Context, filter domain.MovementFilter, cursor int64, limit int) ([]*domain.Movement, error)
}

// IdempotencyRepository maps caller keys to the movements they produced.
type IdempotencyRepository interface {
	Get(ctx context.Context, key string) (*domain.IdempotencyRecord, bool, error)
	// Claim reserves the key inside tx. It waits for a concurrent claim of the
	// same key to finish and fails with domain.ErrDuplicateRequest if the key
	// is already bound.
	Claim(ctx context.Context, tx Transaction, record *domain.IdempotencyRecord) error
	// Release drops a claim made in tx so the key stays free after commit.
	Release(ctx context.Context, tx Transaction, key string) error
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	// CheckConsistency returns the sum of balances and the sum of opening grants.
	CheckConsistency(ctx context.Context) (totalBalance, totalOpening decimal.Decimal, err error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a storage transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// FailureRecorder is implemented by transactions that want to hear about
// errors raised by the work done inside them, not only by Commit or Rollback.
type FailureRecorder interface {
	RecordFailure(err error)
}

// endTx hands err to the first FailureRecorder in tx's decorator chain and
// rolls tx back. Rollback after a successful commit is a no-op. It must run
// even when ctx has expired so partially acquired locks are freed.
func endTx(ctx context.Context, tx Transaction, err error) {
	if err != nil {
		for t := tx; t != nil; {
			if fr, ok := t.(FailureRecorder); ok {
				fr.RecordFailure(err)
				break
			}
			u, ok := t.(interface{ Unwrap() Transaction })
			if !ok {
				break
			}
			t = u.Unwrap()
		}
	}
	_ = tx.Rollback(context.WithoutCancel(ctx))
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation while it fails with a retryable error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// TransferObserver is notified once per transfer request.
type TransferObserver interface {
	ObserveTransfer(result *domain.TransferResult, err error, duration time.Duration)
}
