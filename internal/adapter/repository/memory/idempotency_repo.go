package memory

import (
	"context"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// IdempotencyRepository implements usecase.IdempotencyRepository.
type IdempotencyRepository struct {
	store *Store
}

// NewIdempotencyRepository creates a new IdempotencyRepository.
func NewIdempotencyRepository(store *Store) *IdempotencyRepository {
	return &IdempotencyRepository{store: store}
}

// Get returns the committed binding of key.
func (r *IdempotencyRepository) Get(_ context.Context, key string) (*domain.IdempotencyRecord, bool, error) {
	if err := r.store.available(); err != nil {
		return nil, false, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.keys[key]
	if !ok {
		return nil, false, nil
	}
	cp := *rec
	return &cp, true, nil
}

// Claim takes the key lock, which serializes concurrent requests carrying
// the same key, then checks whether an earlier request already bound it.
func (r *IdempotencyRepository) Claim(ctx context.Context, tx usecase.Transaction, record *domain.IdempotencyRecord) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.lock(ctx, keyLock(record.Key)); err != nil {
		return err
	}

	r.store.mu.RLock()
	_, bound := r.store.keys[record.Key]
	r.store.mu.RUnlock()
	if bound {
		return domain.ErrDuplicateRequest
	}

	cp := *record
	t.keys[record.Key] = &cp
	return nil
}

// Release drops the claim staged in tx.
func (r *IdempotencyRepository) Release(_ context.Context, tx usecase.Transaction, key string) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.keys, key)
	return nil
}
