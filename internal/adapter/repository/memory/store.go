// Package memory is an in-process storage backend with the same locking and
// visibility guarantees as the postgres backend.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// Store holds committed state. Writers stage changes in a Tx and publish them
// atomically on commit, so readers never observe half of a transfer.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]*domain.Account
	movements []*domain.Movement // ordered by Seq
	byID      map[string]*domain.Movement
	keys      map[string]*domain.IdempotencyRecord
	outbox    []*domain.OutboxEvent

	seq    atomic.Int64
	locks  *lockTable
	closed atomic.Bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*domain.Account),
		byID:     make(map[string]*domain.Movement),
		keys:     make(map[string]*domain.IdempotencyRecord),
		locks:    newLockTable(),
	}
}

// Close makes every later operation fail with domain.ErrStorageUnavailable.
func (s *Store) Close() {
	s.closed.Store(true)
}

// Ping reports whether the store accepts operations.
func (s *Store) Ping(context.Context) error {
	return s.available()
}

func (s *Store) available() error {
	if s.closed.Load() {
		return domain.ErrStorageUnavailable
	}
	return nil
}

// insertMovement places m in seq order. Must hold s.mu.
func (s *Store) insertMovement(m *domain.Movement) {
	i := sort.Search(len(s.movements), func(i int) bool { return s.movements[i].Seq > m.Seq })
	s.movements = append(s.movements, nil)
	copy(s.movements[i+1:], s.movements[i:])
	s.movements[i] = m
	s.byID[m.ID] = m
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := m.store.available(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, lockError("", err)
	}

	return &Tx{
		store:    m.store,
		held:     make(map[string]bool),
		accounts: make(map[string]*domain.Account),
		keys:     make(map[string]*domain.IdempotencyRecord),
	}, nil
}

// Tx buffers writes until Commit. Locks taken through it are held until the
// transaction ends.
type Tx struct {
	store *Store

	mu        sync.Mutex
	held      map[string]bool
	order     []string
	created   []*domain.Account
	accounts  map[string]*domain.Account
	movements []*domain.Movement
	keys      map[string]*domain.IdempotencyRecord
	events    []*domain.OutboxEvent
	done      bool
}

// Commit publishes every staged write at once and releases the locks. It
// ignores ctx: once started, a commit always finishes.
func (tx *Tx) Commit(_ context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.done {
		return errTxDone
	}
	defer tx.finish()

	if err := tx.store.available(); err != nil {
		return err
	}

	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range tx.created {
		if _, exists := s.accounts[a.ID]; exists {
			return errDuplicateAccount
		}
	}

	for _, a := range tx.created {
		s.accounts[a.ID] = a.Clone()
	}
	for id, a := range tx.accounts {
		s.accounts[id] = a.Clone()
	}
	for _, m := range tx.movements {
		s.insertMovement(m)
	}
	for key, rec := range tx.keys {
		s.keys[key] = rec
	}
	s.outbox = append(s.outbox, tx.events...)

	return nil
}

// Rollback discards staged writes and releases the locks.
func (tx *Tx) Rollback(_ context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.done {
		return nil
	}
	tx.finish()
	return nil
}

func (tx *Tx) finish() {
	tx.done = true
	for i := len(tx.order) - 1; i >= 0; i-- {
		tx.store.locks.release(tx.order[i])
	}
	tx.order = nil
	tx.held = nil
}

// lock acquires the named locks in sorted order, skipping those already held.
// On failure every lock acquired by this call is released again.
func (tx *Tx) lock(ctx context.Context, names ...string) error {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	var acquired []string
	for _, name := range sorted {
		if tx.held[name] {
			continue
		}
		if err := tx.store.locks.acquire(ctx, name); err != nil {
			for i := len(acquired) - 1; i >= 0; i-- {
				tx.store.locks.release(acquired[i])
				delete(tx.held, acquired[i])
			}
			tx.order = tx.order[:len(tx.order)-len(acquired)]
			return lockError(name, err)
		}
		acquired = append(acquired, name)
		tx.held[name] = true
		tx.order = append(tx.order, name)
	}

	return nil
}

var (
	errTxDone           = errors.New("transaction already finished")
	errDuplicateAccount = errors.New("account already exists")
	errForeignTx        = errors.New("transaction does not belong to the memory store")
)

// lockError maps a lock wait that ran out of time to ErrTimeout naming the
// contended account or idempotency key.
func lockError(name string, err error) error {
	if !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if id, ok := strings.CutPrefix(name, accountLockPrefix); ok {
		return &domain.TransferError{Kind: domain.ErrTimeout, AccountID: id}
	}
	if key, ok := strings.CutPrefix(name, keyLockPrefix); ok {
		return &domain.TransferError{Kind: fmt.Errorf("%w: idempotency key %s", domain.ErrTimeout, key)}
	}
	return &domain.TransferError{Kind: domain.ErrTimeout}
}

type unwrapper interface {
	Unwrap() usecase.Transaction
}

// txFrom extracts the memory transaction, looking through decorators.
func txFrom(tx usecase.Transaction) (*Tx, error) {
	for {
		switch t := tx.(type) {
		case *Tx:
			if t.done {
				return nil, errTxDone
			}
			return t, nil
		case unwrapper:
			tx = t.Unwrap()
		default:
			return nil, errForeignTx
		}
	}
}

const (
	accountLockPrefix = "account:"
	keyLockPrefix     = "key:"
)

func accountLock(id string) string { return accountLockPrefix + id }

func keyLock(key string) string { return keyLockPrefix + key }
