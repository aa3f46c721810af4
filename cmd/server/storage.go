package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/adapter/http/handler"
	"github.com/iho/walletledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/walletledger/internal/adapter/repository/postgres"
	"github.com/iho/walletledger/internal/infrastructure/config"
	"github.com/iho/walletledger/internal/infrastructure/postgres"
	"github.com/iho/walletledger/internal/usecase"
)

// storage bundles the repositories of one backend.
type storage struct {
	txManager       usecase.TransactionManager
	accountRepo     usecase.AccountRepository
	movementRepo    usecase.MovementRepository
	idempotencyRepo usecase.IdempotencyRepository
	outboxRepo      usecase.OutboxRepository
	ledgerRepo      usecase.LedgerRepository
	checker         handler.Checker
	close           func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*storage, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return openMemoryStorage(), nil
	case config.BackendPostgres:
		return openPostgresStorage(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func openMemoryStorage() *storage {
	store := memory.NewStore()
	return &storage{
		txManager:       memory.NewTxManager(store),
		accountRepo:     memory.NewAccountRepository(store),
		movementRepo:    memory.NewMovementRepository(store),
		idempotencyRepo: memory.NewIdempotencyRepository(store),
		outboxRepo:      memory.NewOutboxRepository(store),
		ledgerRepo:      memory.NewLedgerRepository(store),
		checker:         handler.CheckFunc{Label: "memory", Fn: store.Ping},
		close:           store.Close,
	}
}

func openPostgresStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*storage, error) {
	if cfg.MigrateOnStart {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, logger).Up(); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancel()

	pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	logger.Info().Msg("connected to postgres")

	return &storage{
		txManager:       postgresRepo.NewTxManager(pool, cfg.DatabaseLockTimeout),
		accountRepo:     postgresRepo.NewAccountRepository(pool),
		movementRepo:    postgresRepo.NewMovementRepository(pool),
		idempotencyRepo: postgresRepo.NewIdempotencyRepository(pool),
		outboxRepo:      postgresRepo.NewOutboxRepository(pool),
		ledgerRepo:      postgresRepo.NewLedgerRepository(pool),
		checker:         poolChecker{pool: pool},
		close:           pool.Close,
	}, nil
}

type poolChecker struct {
	pool *pgxpool.Pool
}

func (c poolChecker) Name() string { return "postgres" }

func (c poolChecker) Check(ctx context.Context) error { return c.pool.Ping(ctx) }
