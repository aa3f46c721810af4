package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/domain"
)

var accountColumns = []string{"id", "owner_id", "balance", "opening_balance", "version", "created_at", "updated_at"}

var movementColumns = []string{
	"seq", "id", "source_account_id", "dest_account_id", "amount", "status",
	"reason", "idempotency_key", "source_balance", "dest_balance", "created_at",
}

func beginMockTx(t *testing.T, pool pgxmock.PgxPoolIface) *Tx {
	t.Helper()
	pool.ExpectBegin()
	tx, err := pool.Begin(context.Background())
	require.NoError(t, err)
	return &Tx{tx: tx}
}

func TestAccountRepository_ApplyTransfer(t *testing.T) {
	pool := newMockPool(t)
	repo := newAccountRepository(pool)
	tx := beginMockTx(t, pool)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	pool.ExpectQuery("FOR UPDATE").
		WithArgs([]string{"alice", "bob"}).
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow("alice", "u1", "100", "100", int64(0), now, now).
			AddRow("bob", "u2", "5", "5", int64(0), now, now))
	pool.ExpectQuery("balance >= \\$2").
		WithArgs("alice", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow("alice", "u1", "60", "100", int64(1), now, now))
	pool.ExpectQuery("SET balance = balance \\+ \\$2").
		WithArgs("bob", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow("bob", "u2", "45", "5", int64(1), now, now))

	src, dst, err := repo.ApplyTransfer(context.Background(), tx, "alice", "bob", decimal.NewFromInt(40), now)
	require.NoError(t, err)
	assert.True(t, src.Balance.Equal(decimal.NewFromInt(60)))
	assert.True(t, dst.Balance.Equal(decimal.NewFromInt(45)))
	assert.Equal(t, int64(1), dst.Version)
	assertExpectations(t, pool)
}

func TestAccountRepository_ApplyTransferMissingAccount(t *testing.T) {
	pool := newMockPool(t)
	repo := newAccountRepository(pool)
	tx := beginMockTx(t, pool)
	now := time.Now().UTC()

	pool.ExpectQuery("FOR UPDATE").
		WithArgs([]string{"alice", "ghost"}).
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow("alice", "u1", "100", "100", int64(0), now, now))

	_, _, err := repo.ApplyTransfer(context.Background(), tx, "alice", "ghost", decimal.NewFromInt(1), now)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	var te *domain.TransferError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "ghost", te.AccountID)
	assertExpectations(t, pool)
}

func TestAccountRepository_ApplyTransferRejectsBadInput(t *testing.T) {
	pool := newMockPool(t)
	repo := newAccountRepository(pool)
	tx := beginMockTx(t, pool)
	now := time.Now().UTC()

	_, _, err := repo.ApplyTransfer(context.Background(), tx, "alice", "bob", decimal.NewFromInt(-50), now)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, _, err = repo.ApplyTransfer(context.Background(), tx, "alice", "alice", decimal.NewFromInt(30), now)
	assert.ErrorIs(t, err, domain.ErrSelfTransfer)

	// neither call may reach the database
	assertExpectations(t, pool)
}

func TestAccountRepository_ApplyTransferInsufficientFunds(t *testing.T) {
	pool := newMockPool(t)
	repo := newAccountRepository(pool)
	tx := beginMockTx(t, pool)
	now := time.Now().UTC()

	pool.ExpectQuery("FOR UPDATE").
		WithArgs([]string{"alice", "bob"}).
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow("alice", "u1", "10", "10", int64(0), now, now).
			AddRow("bob", "u2", "0", "0", int64(0), now, now))

	_, _, err := repo.ApplyTransfer(context.Background(), tx, "alice", "bob", decimal.NewFromInt(11), now)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assertExpectations(t, pool)
}

func TestAccountRepository_ApplyTransferGuardedDebit(t *testing.T) {
	pool := newMockPool(t)
	repo := newAccountRepository(pool)
	tx := beginMockTx(t, pool)
	now := time.Now().UTC()

	pool.ExpectQuery("FOR UPDATE").
		WithArgs([]string{"alice", "bob"}).
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow("alice", "u1", "10", "10", int64(0), now, now).
			AddRow("bob", "u2", "0", "0", int64(0), now, now))
	pool.ExpectQuery("balance >= \\$2").
		WithArgs("alice", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, _, err := repo.ApplyTransfer(context.Background(), tx, "alice", "bob", decimal.NewFromInt(10), now)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assertExpectations(t, pool)
}

func TestAccountRepository_ApplyTransferLockTimeout(t *testing.T) {
	pool := newMockPool(t)
	repo := newAccountRepository(pool)
	tx := beginMockTx(t, pool)

	pool.ExpectQuery("FOR UPDATE").
		WithArgs([]string{"alice", "bob"}).
		WillReturnError(&pgconn.PgError{Code: pgErrLockNotAvailable})

	_, _, err := repo.ApplyTransfer(context.Background(), tx, "alice", "bob", decimal.NewFromInt(1), time.Now())
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assertExpectations(t, pool)
}

func TestAccountRepository_GetByIDNotFound(t *testing.T) {
	pool := newMockPool(t)
	repo := newAccountRepository(pool)

	pool.ExpectQuery("FROM accounts WHERE id = \\$1").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assertExpectations(t, pool)
}

func TestAccountRepository_Create(t *testing.T) {
	pool := newMockPool(t)
	repo := newAccountRepository(pool)
	tx := beginMockTx(t, pool)
	now := time.Now().UTC()

	pool.ExpectQuery("INSERT INTO accounts").
		WithArgs("alice", "u1", pgxmock.AnyArg(), pgxmock.AnyArg(), int64(0), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow("alice", "u1", "100", "100", int64(0), now, now))

	err := repo.Create(context.Background(), tx, &domain.Account{
		ID:             "alice",
		OwnerID:        "u1",
		Balance:        decimal.NewFromInt(100),
		OpeningBalance: decimal.NewFromInt(100),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err)
	assertExpectations(t, pool)
}

func TestMovementRepository_AppendAssignsSeq(t *testing.T) {
	pool := newMockPool(t)
	repo := newMovementRepository(pool)
	tx := beginMockTx(t, pool)

	pool.ExpectQuery("INSERT INTO movements").
		WithArgs("m1", "alice", "bob", pgxmock.AnyArg(), "rejected", domain.ReasonInsufficientFunds,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"seq"}).AddRow(int64(42)))

	m := &domain.Movement{
		ID:              "m1",
		SourceAccountID: "alice",
		DestAccountID:   "bob",
		Amount:          decimal.NewFromInt(7),
		Status:          domain.MovementStatusRejected,
		Reason:          domain.ReasonInsufficientFunds,
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, repo.Append(context.Background(), tx, m))
	assert.Equal(t, int64(42), m.Seq)
	assertExpectations(t, pool)
}

func TestMovementRepository_ListUsesOrder(t *testing.T) {
	pool := newMockPool(t)
	repo := newMovementRepository(pool)
	now := time.Now().UTC()

	pool.ExpectQuery("ORDER BY seq ASC").
		WithArgs("alice", pgxmock.AnyArg(), pgxmock.AnyArg(), int64(3), int32(2)).
		WillReturnRows(pgxmock.NewRows(movementColumns).
			AddRow(int64(4), "m4", "alice", "bob", "5", "completed", "", "k4", "95", "5", now).
			AddRow(int64(5), "m5", "bob", "alice", "1", "rejected", domain.ReasonInsufficientFunds, nil, nil, nil, now))

	got, err := repo.List(context.Background(), domain.MovementFilter{AccountID: "alice", Order: domain.OrderOldestFirst}, 3, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(4), got[0].Seq)
	assert.Equal(t, "k4", got[0].IdempotencyKey)
	assert.True(t, got[0].SourceBalance.Equal(decimal.NewFromInt(95)))
	assert.Equal(t, domain.MovementStatusRejected, got[1].Status)
	assert.Empty(t, got[1].IdempotencyKey)

	pool.ExpectQuery("ORDER BY seq DESC").
		WithArgs("", pgxmock.AnyArg(), pgxmock.AnyArg(), int64(0), int32(10)).
		WillReturnRows(pgxmock.NewRows(movementColumns))

	got, err = repo.List(context.Background(), domain.MovementFilter{}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	assertExpectations(t, pool)
}

func TestMovementRepository_GetByIDNotFound(t *testing.T) {
	pool := newMockPool(t)
	repo := newMovementRepository(pool)

	pool.ExpectQuery("FROM movements WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrMovementNotFound)
	assertExpectations(t, pool)
}

func TestIdempotencyRepository_ClaimDuplicate(t *testing.T) {
	pool := newMockPool(t)
	repo := newIdempotencyRepository(pool)
	tx := beginMockTx(t, pool)

	pool.ExpectExec("INSERT INTO idempotency_keys").
		WithArgs("k1", "m2", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	err := repo.Claim(context.Background(), tx, &domain.IdempotencyRecord{Key: "k1", MovementID: "m2", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest)
	assertExpectations(t, pool)
}

func TestIdempotencyRepository_GetAndRelease(t *testing.T) {
	pool := newMockPool(t)
	repo := newIdempotencyRepository(pool)
	now := time.Now().UTC()

	pool.ExpectQuery("FROM idempotency_keys").
		WithArgs("free").
		WillReturnError(pgx.ErrNoRows)
	pool.ExpectQuery("FROM idempotency_keys").
		WithArgs("bound").
		WillReturnRows(pgxmock.NewRows([]string{"key", "movement_id", "created_at"}).AddRow("bound", "m1", now))

	_, found, err := repo.Get(context.Background(), "free")
	require.NoError(t, err)
	assert.False(t, found)

	rec, found, err := repo.Get(context.Background(), "bound")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "m1", rec.MovementID)

	tx := beginMockTx(t, pool)
	pool.ExpectExec("DELETE FROM idempotency_keys").
		WithArgs("bound").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, repo.Release(context.Background(), tx, "bound"))
	assertExpectations(t, pool)
}

func TestLedgerRepository_CheckConsistency(t *testing.T) {
	pool := newMockPool(t)
	repo := newLedgerRepository(pool)

	pool.ExpectQuery("SUM\\(balance\\)").
		WillReturnRows(pgxmock.NewRows([]string{"total_balance", "total_opening"}).AddRow("300", "300"))

	total, opening, err := repo.CheckConsistency(context.Background())
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(300)))
	assert.True(t, opening.Equal(decimal.NewFromInt(300)))
	assertExpectations(t, pool)
}

func TestOutboxRepository_CreateAndFetch(t *testing.T) {
	pool := newMockPool(t)
	repo := newOutboxRepository(pool)
	tx := beginMockTx(t, pool)
	now := time.Now().UTC()

	pool.ExpectExec("INSERT INTO outbox_events").
		WithArgs("e1", "m1", domain.AggregateTypeMovement, domain.EventTypeMovementCompleted,
			pgxmock.AnyArg(), pgxmock.AnyArg(), false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	event := domain.NewMovementEvent("e1", &domain.Movement{
		ID:        "m1",
		Amount:    decimal.NewFromInt(1),
		Status:    domain.MovementStatusCompleted,
		CreatedAt: now,
	})
	require.NoError(t, repo.Create(context.Background(), tx, event))

	pool.ExpectQuery("WHERE published = FALSE").
		WithArgs(int32(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "aggregate_id", "aggregate_type", "event_type", "payload", "created_at", "published_at", "published"}).
			AddRow("e1", "m1", domain.AggregateTypeMovement, domain.EventTypeMovementCompleted, []byte(`{"movement_id":"m1"}`), now, nil, false))

	events, err := repo.GetUnpublished(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "m1", events[0].Payload["movement_id"])
	assert.Nil(t, events[0].PublishedAt)
	assertExpectations(t, pool)
}

func TestDecimalNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "1000000000000", "12.5"} {
		d := decimal.RequireFromString(s)
		assert.True(t, numericToDecimal(decimalToNumeric(d)).Equal(d), s)
	}
}
