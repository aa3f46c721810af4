package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create stages a new account.
func (r *AccountRepository) Create(_ context.Context, tx usecase.Transaction, account *domain.Account) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	r.store.mu.RLock()
	_, exists := r.store.accounts[account.ID]
	r.store.mu.RUnlock()
	if exists {
		return errDuplicateAccount
	}

	t.created = append(t.created, account.Clone())
	return nil
}

// GetByID returns a committed snapshot of an account.
func (r *AccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	if err := r.store.available(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.NotFound(id)
	}
	return a.Clone(), nil
}

// List returns accounts ordered by id.
func (r *AccountRepository) List(_ context.Context, limit, offset int) ([]*domain.Account, error) {
	if err := r.store.available(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	ids := make([]string, 0, len(r.store.accounts))
	for id := range r.store.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	accounts := make([]*domain.Account, 0, limit)
	for i := offset; i < len(ids) && len(accounts) < limit; i++ {
		accounts = append(accounts, r.store.accounts[ids[i]].Clone())
	}
	r.store.mu.RUnlock()

	return accounts, nil
}

// ApplyTransfer locks both accounts in canonical order, checks funds under
// the lock and stages the debit and credit.
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

	t, err := txFrom(tx)
	if err != nil {
		return nil, nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.lock(ctx, accountLock(sourceID), accountLock(destID)); err != nil {
		return nil, nil, err
	}

	source, err := t.current(sourceID)
	if err != nil {
		return nil, nil, err
	}
	dest, err := t.current(destID)
	if err != nil {
		return nil, nil, err
	}

	if err := source.ValidateDebit(amount); err != nil {
		return nil, nil, err
	}

	source.Balance = source.ApplyDebit(amount)
	source.Version++
	source.UpdatedAt = at

	dest.Balance = dest.ApplyCredit(amount)
	dest.Version++
	dest.UpdatedAt = at

	t.accounts[sourceID] = source
	t.accounts[destID] = dest

	return source.Clone(), dest.Clone(), nil
}

// current returns the account as this transaction sees it. Must hold t.mu.
func (t *Tx) current(id string) (*domain.Account, error) {
	if a, ok := t.accounts[id]; ok {
		return a.Clone(), nil
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	a, ok := t.store.accounts[id]
	if !ok {
		return nil, domain.NotFound(id)
	}
	return a.Clone(), nil
}
