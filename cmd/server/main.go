package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/walletledger/internal/adapter/http"
	"github.com/iho/walletledger/internal/adapter/http/handler"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/adapter/repository/breaker"
	postgresRepo "github.com/iho/walletledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/walletledger/internal/adapter/repository/redis"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/auth"
	"github.com/iho/walletledger/internal/infrastructure/config"
	"github.com/iho/walletledger/internal/infrastructure/eventpublisher"
	"github.com/iho/walletledger/internal/infrastructure/logger"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
	"github.com/iho/walletledger/internal/infrastructure/redis"
	"github.com/iho/walletledger/internal/usecase"
)

func main() {
	// Until the configured logger exists
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	grant, err := cfg.Grant()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	checkers := []handler.Checker{store.checker}

	var txManager usecase.TransactionManager = store.txManager
	if cfg.BreakerEnabled {
		txManager = breaker.NewTxManager(txManager, breaker.Config{
			Name:                "storage",
			MaxRequests:         1,
			Interval:            cfg.BreakerInterval,
			Timeout:             cfg.BreakerTimeout,
			ConsecutiveFailures: cfg.BreakerFailures,
			OnStateChange: func(_, to gobreaker.State) {
				m.ObserveBreakerState(int(to))
			},
		}, logger)
	}

	idempotencyRepo := store.idempotencyRepo
	var publisher eventpublisher.Publisher = eventpublisher.NewLogPublisher(logger)

	if cfg.RedisEnabled {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL, 5*time.Second)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		logger.Info().Msg("connected to redis")

		idempotencyRepo = redisRepo.NewIdempotencyCache(idempotencyRepo, redisClient, cfg.IdempotencyCacheTTL, logger)
		publisher = redisRepo.NewStreamPublisher(redisClient, cfg.RedisStream, cfg.RedisStreamMaxLen)
		checkers = append(checkers, redis.NewChecker(redisClient))
	}

	var retrier usecase.Retrier
	if cfg.TransferMaxRetries > 0 {
		retrier = postgresRepo.NewRetrierWithConfig(postgresRepo.RetrierConfig{
			MaxRetries:     cfg.TransferMaxRetries,
			MaxElapsedTime: cfg.TransferTimeout,
		}, logger)
	}

	idGen := postgresRepo.NewULIDGenerator()

	transferUC := usecase.NewTransferUseCase(
		txManager,
		store.accountRepo,
		store.movementRepo,
		idempotencyRepo,
		store.outboxRepo,
		idGen,
		usecase.TransferConfig{
			Timeout:  cfg.TransferTimeout,
			Retrier:  retrier,
			Observer: m,
			Logger:   logger,
		},
	)
	accountUC := usecase.NewAccountUseCase(txManager, store.accountRepo, store.outboxRepo, idGen, grant)
	queryUC := usecase.NewQueryUseCase(store.accountRepo, store.movementRepo)
	reconciliationUC := usecase.NewReconciliationUseCase(store.accountRepo, store.movementRepo, store.ledgerRepo)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).OnLimit(m.RateLimitHits.Inc)

	routerCfg := httpAdapter.RouterConfig{
		AccountHandler:  handler.NewAccountHandler(countingAccounts{AccountService: accountUC, opened: m.AccountsOpened}, queryUC),
		TransferHandler: handler.NewTransferHandler(transferUC, queryUC),
		MovementHandler: handler.NewMovementHandler(queryUC),
		LedgerHandler:   handler.NewLedgerHandler(reconciliationUC),
		HealthHandler:   handler.NewHealthHandler(checkers...),
		Logger:          logger,
		Metrics:         m,
		Gatherer:        registry,
		RateLimiter:     rateLimiter,
	}
	if cfg.AuthEnabled {
		routerCfg.TokenVerifier = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      httpAdapter.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("port", cfg.HTTPPort).Str("backend", cfg.StorageBackend).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				rateLimiter.CleanupLimiters(10 * time.Minute)
			}
		}
	})

	if cfg.EventsEnabled {
		events := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: store.outboxRepo,
			Publisher:  publisher,
			Recorder:   m,
			Logger:     logger,
			BatchSize:  cfg.EventsBatchSize,
			Interval:   cfg.EventsInterval,
			Retention:  cfg.EventsRetention,
		})
		g.Go(func() error {
			if err := events.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}

// countingAccounts counts opened accounts.
type countingAccounts struct {
	handler.AccountService
	opened prometheus.Counter
}

func (c countingAccounts) OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error) {
	account, err := c.AccountService.OpenAccount(ctx, input)
	if err == nil {
		c.opened.Inc()
	}
	return account, err
}
