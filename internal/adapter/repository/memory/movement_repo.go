package memory

import (
	"context"
	"sort"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// MovementRepository implements usecase.MovementRepository.
type MovementRepository struct {
	store *Store
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(store *Store) *MovementRepository {
	return &MovementRepository{store: store}
}

// Append assigns the next seq and stages m. Seqs of rolled back transactions
// are never reused.
func (r *MovementRepository) Append(_ context.Context, tx usecase.Transaction, m *domain.Movement) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	m.Seq = r.store.seq.Add(1)
	cp := *m
	t.movements = append(t.movements, &cp)
	return nil
}

// GetByID returns a committed movement.
func (r *MovementRepository) GetByID(_ context.Context, id string) (*domain.Movement, error) {
	if err := r.store.available(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	m, ok := r.store.byID[id]
	if !ok {
		return nil, domain.ErrMovementNotFound
	}
	cp := *m
	return &cp, nil
}

// List scans the log from cursor in the filter's order.
func (r *MovementRepository) List(_ context.Context, filter domain.MovementFilter, cursor int64, limit int) ([]*domain.Movement, error) {
	if err := r.store.available(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	log := r.store.movements
	page := make([]*domain.Movement, 0, limit)

	take := func(m *domain.Movement) bool {
		if filter.Matches(m) {
			cp := *m
			page = append(page, &cp)
		}
		return len(page) < limit
	}

	if filter.Order == domain.OrderOldestFirst {
		start := sort.Search(len(log), func(i int) bool { return log[i].Seq > cursor })
		for i := start; i < len(log); i++ {
			if !take(log[i]) {
				break
			}
		}
		return page, nil
	}

	end := len(log)
	if cursor > 0 {
		end = sort.Search(len(log), func(i int) bool { return log[i].Seq >= cursor })
	}
	for i := end - 1; i >= 0; i-- {
		if !take(log[i]) {
			break
		}
	}
	return page, nil
}
