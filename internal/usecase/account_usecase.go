package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	openingGrant decimal.Decimal
}

// NewAccountUseCase creates a new AccountUseCase. A negative openingGrant
// falls back to domain.DefaultOpeningGrant.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	openingGrant decimal.Decimal,
) *AccountUseCase {
	if openingGrant.IsNegative() {
		openingGrant = domain.DefaultOpeningGrant
	}

	return &AccountUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		openingGrant: openingGrant,
	}
}

// OpenAccountInput represents input for opening an account.
type OpenAccountInput struct {
	OwnerID string
}

// OpenAccount creates an account funded with the opening grant.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (_ *domain.Account, err error) {
	now := time.Now().UTC()

	account := &domain.Account{
		ID:             uc.idGen.Generate(),
		OwnerID:        strings.TrimSpace(input.OwnerID),
		Balance:        uc.openingGrant,
		OpeningBalance: uc.openingGrant,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { endTx(ctx, tx, err) }()

	if err = uc.accountRepo.Create(ctx, tx, account); err != nil {
		return nil, err
	}

	if err = uc.outboxRepo.Create(ctx, tx, domain.NewAccountOpenedEvent(uc.idGen.Generate(), account)); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidHandle
	}
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Offset < 0 {
		input.Offset = 0
	}
	return uc.accountRepo.List(ctx, domain.ClampPageSize(input.Limit), input.Offset)
}
