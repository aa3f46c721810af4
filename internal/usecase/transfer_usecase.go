package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/domain"
)

// TransferConfig carries the tunables of the transfer engine.
type TransferConfig struct {
	// Timeout bounds a single attempt, lock waits and commit included.
	Timeout time.Duration
	// Retrier re-runs attempts that failed transiently. Nil means one attempt.
	Retrier  Retrier
	Observer TransferObserver
	Logger   zerolog.Logger
	// Clock stamps movements. Defaults to time.Now.
	Clock func() time.Time
}

// TransferUseCase is the transfer engine: it turns a transfer request into
// exactly one committed movement, or none.
type TransferUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	movementRepo    MovementRepository
	idempotencyRepo IdempotencyRepository
	outboxRepo      OutboxRepository
	idGen           IDGenerator

	timeout  time.Duration
	retrier  Retrier
	observer TransferObserver
	logger   zerolog.Logger
	clock    func() time.Time
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	movementRepo MovementRepository,
	idempotencyRepo IdempotencyRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	cfg TransferConfig,
) *TransferUseCase {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTransactionTimeout
	}
	if cfg.Retrier == nil {
		cfg.Retrier = singleAttempt{}
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &TransferUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		movementRepo:    movementRepo,
		idempotencyRepo: idempotencyRepo,
		outboxRepo:      outboxRepo,
		idGen:           idGen,
		timeout:         cfg.Timeout,
		retrier:         cfg.Retrier,
		observer:        cfg.Observer,
		logger:          cfg.Logger,
		clock:           cfg.Clock,
	}
}

// Transfer moves req.Amount from the source to the destination account.
//
// On success the result holds the completed movement and post-commit account
// snapshots. When the source cannot cover the amount a rejected movement is
// recorded and returned together with domain.ErrInsufficientFunds. A request
// whose idempotency key was already used returns the original movement with
// Duplicate set. Every other error means nothing was committed.
func (uc *TransferUseCase) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error) {
	start := time.Now()
	result, err := uc.transfer(ctx, req)
	uc.observer.ObserveTransfer(result, err, time.Since(start))
	return result, err
}

func (uc *TransferUseCase) transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		result, err := uc.replay(ctx, req)
		if err != nil || result != nil {
			return result, err
		}
	}

	var result *domain.TransferResult
	err := uc.retrier.Retry(ctx, func() error {
		var attemptErr error
		result, attemptErr = uc.attempt(ctx, req)
		return uc.markRetrySafe(req, attemptErr)
	})

	if errors.Is(err, domain.ErrDuplicateRequest) {
		replayed, replayErr := uc.replay(ctx, req)
		if replayErr != nil {
			return nil, replayErr
		}
		if replayed == nil {
			return nil, fmt.Errorf("idempotency key %q bound but unreadable: %w", req.IdempotencyKey, domain.ErrStorageUnavailable)
		}
		return replayed, nil
	}

	switch {
	case err == nil:
		uc.logger.Debug().
			Str("movement_id", result.Movement.ID).
			Int64("seq", result.Movement.Seq).
			Str("source_account_id", req.SourceAccountID).
			Str("dest_account_id", req.DestAccountID).
			Str("amount", req.Amount.String()).
			Str("idempotency_key", req.IdempotencyKey).
			Msg("transfer completed")
	case errors.Is(err, domain.ErrInsufficientFunds):
		uc.logger.Warn().
			Str("source_account_id", req.SourceAccountID).
			Str("dest_account_id", req.DestAccountID).
			Str("amount", req.Amount.String()).
			Msg("transfer rejected: insufficient funds")
	case errors.Is(err, domain.ErrStorageUnavailable), errors.Is(err, domain.ErrTimeout):
		uc.logger.Error().Err(err).
			Str("source_account_id", req.SourceAccountID).
			Str("dest_account_id", req.DestAccountID).
			Str("idempotency_key", req.IdempotencyKey).
			Msg("transfer failed")
	}

	return result, err
}

// attempt runs one transaction. It returns a non-nil result only when a
// movement was committed.
func (uc *TransferUseCase) attempt(ctx context.Context, req domain.TransferRequest) (_ *domain.TransferResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, mapContextError(err)
	}
	defer func() { endTx(ctx, tx, err) }()

	// Stored timestamps keep microseconds, so a replay must see the same value.
	now := uc.clock().UTC().Truncate(time.Microsecond)
	movement := &domain.Movement{
		ID:              uc.idGen.Generate(),
		SourceAccountID: req.SourceAccountID,
		DestAccountID:   req.DestAccountID,
		Amount:          req.Amount,
		IdempotencyKey:  req.IdempotencyKey,
		CreatedAt:       now,
	}

	if req.IdempotencyKey != "" {
		err = uc.idempotencyRepo.Claim(ctx, tx, &domain.IdempotencyRecord{
			Key:        req.IdempotencyKey,
			MovementID: movement.ID,
			CreatedAt:  now,
		})
		if err != nil {
			return nil, mapContextError(err)
		}
	}

	source, dest, err := uc.accountRepo.ApplyTransfer(ctx, tx, req.SourceAccountID, req.DestAccountID, req.Amount, now)
	switch {
	case err == nil:
		movement.Status = domain.MovementStatusCompleted
		movement.SourceBalance = source.Balance
		movement.DestBalance = dest.Balance
	case errors.Is(err, domain.ErrInsufficientFunds):
		// The key stays unbound so the caller may retry once funded.
		if req.IdempotencyKey != "" {
			if releaseErr := uc.idempotencyRepo.Release(ctx, tx, req.IdempotencyKey); releaseErr != nil {
				return nil, mapContextError(releaseErr)
			}
			movement.IdempotencyKey = ""
		}
		movement.Status = domain.MovementStatusRejected
		movement.Reason = domain.ReasonInsufficientFunds
	default:
		return nil, mapContextError(err)
	}

	if appendErr := uc.movementRepo.Append(ctx, tx, movement); appendErr != nil {
		return nil, mapContextError(appendErr)
	}

	if outboxErr := uc.outboxRepo.Create(ctx, tx, domain.NewMovementEvent(uc.idGen.Generate(), movement)); outboxErr != nil {
		return nil, mapContextError(outboxErr)
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		return nil, mapContextError(commitErr)
	}

	if movement.IsCompleted() {
		return &domain.TransferResult{Movement: movement, Source: source, Dest: dest}, nil
	}

	return &domain.TransferResult{Movement: movement}, err
}

// replay returns the movement already bound to req's idempotency key, or nil
// when the key is free.
func (uc *TransferUseCase) replay(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error) {
	record, found, err := uc.idempotencyRepo.Get(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, mapContextError(err)
	}
	if !found {
		return nil, nil
	}

	movement, err := uc.movementRepo.GetByID(ctx, record.MovementID)
	if err != nil {
		return nil, mapContextError(err)
	}

	if movement.SourceAccountID != req.SourceAccountID ||
		movement.DestAccountID != req.DestAccountID ||
		!movement.Amount.Equal(req.Amount) {
		return nil, &domain.TransferError{Kind: domain.ErrIdempotencyConflict, Amount: req.Amount}
	}

	return &domain.TransferResult{Movement: movement, Duplicate: true}, nil
}

// markRetrySafe flags storage failures of keyed requests as retryable: a
// second attempt either finds the key bound or applies the transfer once.
func (uc *TransferUseCase) markRetrySafe(req domain.TransferRequest, err error) error {
	if err == nil || req.IdempotencyKey == "" {
		return err
	}
	if errors.Is(err, domain.ErrStorageUnavailable) && !domain.IsRetrySafe(err) {
		return fmt.Errorf("%w: %w", domain.ErrRetrySafe, err)
	}
	return err
}

func mapContextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrTimeout) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return err
}

type singleAttempt struct{}

func (singleAttempt) Retry(_ context.Context, operation func() error) error {
	return operation()
}

type nopObserver struct{}

func (nopObserver) ObserveTransfer(*domain.TransferResult, error, time.Duration) {}
