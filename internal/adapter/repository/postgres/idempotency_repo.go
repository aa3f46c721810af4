package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
	"github.com/iho/walletledger/internal/usecase"
)

// IdempotencyRepository implements usecase.IdempotencyRepository.
//
// The key row is inserted before the movement it points at; the foreign key
// is checked at commit.
type IdempotencyRepository struct {
	queries *generated.Queries
}

// NewIdempotencyRepository creates a new IdempotencyRepository.
func NewIdempotencyRepository(pool *pgxpool.Pool) *IdempotencyRepository {
	return newIdempotencyRepository(pool)
}

func newIdempotencyRepository(db generated.DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{queries: generated.New(db)}
}

// Get returns the committed binding for key.
func (r *IdempotencyRepository) Get(ctx context.Context, key string) (*domain.IdempotencyRecord, bool, error) {
	row, err := r.queries.GetIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, mapError(err)
	}

	return &domain.IdempotencyRecord{
		Key:        row.Key,
		MovementID: row.MovementID,
		CreatedAt:  row.CreatedAt.Time,
	}, true, nil
}

// Claim inserts the key. A concurrent claimer blocks on the unique index
// until the first transaction finishes and then gets ErrDuplicateRequest.
func (r *IdempotencyRepository) Claim(ctx context.Context, tx usecase.Transaction, record *domain.IdempotencyRecord) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	err = r.queries.WithTx(pgxTx).InsertIdempotencyKey(ctx, generated.InsertIdempotencyKeyParams{
		Key:        record.Key,
		MovementID: record.MovementID,
		CreatedAt:  timeToPgTimestamptz(record.CreatedAt),
	})
	if isUniqueViolation(err) {
		return domain.ErrDuplicateRequest
	}

	return mapError(err)
}

// Release drops a claim made earlier in the same transaction.
func (r *IdempotencyRepository) Release(ctx context.Context, tx usecase.Transaction, key string) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	return mapError(r.queries.WithTx(pgxTx).DeleteIdempotencyKey(ctx, key))
}
