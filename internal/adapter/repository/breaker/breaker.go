// Package breaker guards the storage backend with a circuit breaker so that
// an unreachable database fails transfers fast instead of piling up
// connection attempts.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// Config tunes the breaker.
type Config struct {
	Name string
	// MaxRequests is the number of trial transactions allowed while half-open.
	MaxRequests uint32
	// Interval resets the failure counts while closed. Zero never resets.
	Interval time.Duration
	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OnStateChange is called after every state transition.
	OnStateChange func(from, to gobreaker.State)
}

// DefaultConfig returns the breaker settings used by the server.
func DefaultConfig() Config {
	return Config{
		Name:                "storage",
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             5 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// TxManager wraps a usecase.TransactionManager. Only storage outages count
// as failures; business rejections and timeouts leave the breaker alone.
type TxManager struct {
	next usecase.TransactionManager
	cb   *gobreaker.TwoStepCircuitBreaker
}

// NewTxManager creates a breaker-guarded transaction manager.
func NewTxManager(next usecase.TransactionManager, cfg Config, logger zerolog.Logger) *TxManager {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultConfig().ConsecutiveFailures
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(from, to)
			}
		},
	}

	return &TxManager{next: next, cb: gobreaker.NewTwoStepCircuitBreaker(settings)}
}

// State reports the current breaker state.
func (m *TxManager) State() gobreaker.State {
	return m.cb.State()
}

// Begin starts a transaction unless the breaker is open.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	done, err := m.cb.Allow()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	tx, err := m.next.Begin(ctx)
	if err != nil {
		done(!isOutage(err))
		return nil, err
	}

	return &Tx{Transaction: tx, done: done}, nil
}

// Tx reports the outcome of the transaction to the breaker once it ends. An
// outage recorded while the transaction was open counts as a failure even if
// the rollback itself succeeds.
type Tx struct {
	usecase.Transaction
	done   func(success bool)
	once   sync.Once
	outage atomic.Bool
}

// RecordFailure notes an error raised by work done inside the transaction.
func (t *Tx) RecordFailure(err error) {
	if isOutage(err) {
		t.outage.Store(true)
	}
}

// Commit commits the wrapped transaction.
func (t *Tx) Commit(ctx context.Context) error {
	err := t.Transaction.Commit(ctx)
	t.report(err)
	return err
}

// Rollback rolls back the wrapped transaction.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.Transaction.Rollback(ctx)
	t.report(err)
	return err
}

// Unwrap returns the backend transaction.
func (t *Tx) Unwrap() usecase.Transaction {
	return t.Transaction
}

func (t *Tx) report(err error) {
	t.once.Do(func() { t.done(!isOutage(err) && !t.outage.Load()) })
}

func isOutage(err error) bool {
	return errors.Is(err, domain.ErrStorageUnavailable)
}
