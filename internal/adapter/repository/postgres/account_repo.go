package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
	"github.com/iho/walletledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepository(pool)
}

func newAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{queries: generated.New(db)}
}

// Create inserts a new account within a transaction.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	_, err = r.queries.WithTx(pgxTx).CreateAccount(ctx, generated.CreateAccountParams{
		ID:             account.ID,
		OwnerID:        account.OwnerID,
		Balance:        decimalToNumeric(account.Balance),
		OpeningBalance: decimalToNumeric(account.OpeningBalance),
		Version:        account.Version,
		CreatedAt:      timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:      timeToPgTimestamptz(account.UpdatedAt),
	})

	return mapError(err)
}

// GetByID retrieves the committed state of an account.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(id)
		}

		return nil, mapError(err)
	}

	return rowToAccount(row), nil
}

// List lists accounts ordered by id.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, mapError(err)
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

// ApplyTransfer locks both rows in id order, checks funds under the lock and
// applies the debit and credit.
func (r *AccountRepository) ApplyTransfer(
	ctx context.Context,
	tx usecase.Transaction,
	sourceID, destID string,
	amount decimal.Decimal,
	at time.Time,
) (*domain.Account, *domain.Account, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, nil, err
	}
	if sourceID == destID {
		return nil, nil, &domain.TransferError{Kind: domain.ErrSelfTransfer, AccountID: sourceID}
	}

	pgxTx, err := txFrom(tx)
	if err != nil {
		return nil, nil, err
	}
	queries := r.queries.WithTx(pgxTx)

	rows, err := queries.GetAccountsByIDsForUpdate(ctx, []string{sourceID, destID})
	if err != nil {
		return nil, nil, mapError(err)
	}

	locked := make(map[string]*domain.Account, len(rows))
	for _, row := range rows {
		locked[row.ID] = rowToAccount(row)
	}

	source, ok := locked[sourceID]
	if !ok {
		return nil, nil, domain.NotFound(sourceID)
	}
	if _, ok := locked[destID]; !ok {
		return nil, nil, domain.NotFound(destID)
	}

	if err := source.ValidateDebit(amount); err != nil {
		return nil, nil, err
	}

	debited, err := queries.DebitAccount(ctx, generated.DebitAccountParams{
		ID:        sourceID,
		Amount:    decimalToNumeric(amount),
		UpdatedAt: timeToPgTimestamptz(at),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, &domain.TransferError{Kind: domain.ErrInsufficientFunds, AccountID: sourceID, Amount: amount}
		}
		return nil, nil, mapError(err)
	}

	credited, err := queries.CreditAccount(ctx, generated.CreditAccountParams{
		ID:        destID,
		Amount:    decimalToNumeric(amount),
		UpdatedAt: timeToPgTimestamptz(at),
	})
	if err != nil {
		return nil, nil, mapError(err)
	}

	return rowToAccount(debited), rowToAccount(credited), nil
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:             row.ID,
		OwnerID:        row.OwnerID,
		Balance:        numericToDecimal(row.Balance),
		OpeningBalance: numericToDecimal(row.OpeningBalance),
		Version:        row.Version,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func optionalNumeric(d decimal.Decimal, set bool) pgtype.Numeric {
	if !set {
		return pgtype.Numeric{}
	}
	return decimalToNumeric(d)
}

func optionalText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func optionalTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return timeToPgTimestamptz(*t)
}
