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

// MovementRepository implements usecase.MovementRepository on the
// append-only movements table.
type MovementRepository struct {
	queries *generated.Queries
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(pool *pgxpool.Pool) *MovementRepository {
	return newMovementRepository(pool)
}

func newMovementRepository(db generated.DBTX) *MovementRepository {
	return &MovementRepository{queries: generated.New(db)}
}

// Append inserts m and stores the assigned sequence number on it.
func (r *MovementRepository) Append(ctx context.Context, tx usecase.Transaction, m *domain.Movement) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	seq, err := r.queries.WithTx(pgxTx).AppendMovement(ctx, generated.AppendMovementParams{
		ID:              m.ID,
		SourceAccountID: m.SourceAccountID,
		DestAccountID:   m.DestAccountID,
		Amount:          decimalToNumeric(m.Amount),
		Status:          string(m.Status),
		Reason:          m.Reason,
		IdempotencyKey:  optionalText(m.IdempotencyKey),
		SourceBalance:   optionalNumeric(m.SourceBalance, m.IsCompleted()),
		DestBalance:     optionalNumeric(m.DestBalance, m.IsCompleted()),
		CreatedAt:       timeToPgTimestamptz(m.CreatedAt),
	})
	if err != nil {
		return mapError(err)
	}

	m.Seq = seq
	return nil
}

// GetByID retrieves a movement by ID.
func (r *MovementRepository) GetByID(ctx context.Context, id string) (*domain.Movement, error) {
	row, err := r.queries.GetMovementByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMovementNotFound
		}

		return nil, mapError(err)
	}

	return rowToMovement(row), nil
}

// List returns up to limit movements matching filter that lie strictly past
// cursor in the filter's order. A zero cursor starts from the beginning.
func (r *MovementRepository) List(ctx context.Context, filter domain.MovementFilter, cursor int64, limit int) ([]*domain.Movement, error) {
	var (
		rows []generated.Movement
		err  error
	)

	if filter.Order == domain.OrderOldestFirst {
		rows, err = r.queries.ListMovementsAsc(ctx, generated.ListMovementsAscParams{
			AccountID: filter.AccountID,
			FromTime:  optionalTimestamptz(filter.From),
			ToTime:    optionalTimestamptz(filter.To),
			Cursor:    cursor,
			Limit:     int32(limit),
		})
	} else {
		rows, err = r.queries.ListMovementsDesc(ctx, generated.ListMovementsDescParams{
			AccountID: filter.AccountID,
			FromTime:  optionalTimestamptz(filter.From),
			ToTime:    optionalTimestamptz(filter.To),
			Cursor:    cursor,
			Limit:     int32(limit),
		})
	}
	if err != nil {
		return nil, mapError(err)
	}

	movements := make([]*domain.Movement, 0, len(rows))
	for _, row := range rows {
		movements = append(movements, rowToMovement(row))
	}

	return movements, nil
}

func rowToMovement(row generated.Movement) *domain.Movement {
	return &domain.Movement{
		Seq:             row.Seq,
		ID:              row.ID,
		SourceAccountID: row.SourceAccountID,
		DestAccountID:   row.DestAccountID,
		Amount:          numericToDecimal(row.Amount),
		Status:          domain.MovementStatus(row.Status),
		Reason:          row.Reason,
		IdempotencyKey:  row.IdempotencyKey.String,
		SourceBalance:   numericToDecimal(row.SourceBalance),
		DestBalance:     numericToDecimal(row.DestBalance),
		CreatedAt:       row.CreatedAt.Time,
	}
}
