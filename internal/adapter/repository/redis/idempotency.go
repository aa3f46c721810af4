package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// DefaultIdempotencyTTL bounds how long a cached binding is kept.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyCache is a read-through cache in front of an
// usecase.IdempotencyRepository. Only committed bindings are cached; they
// are never overwritten, so a cached entry cannot go stale.
type IdempotencyCache struct {
	next   usecase.IdempotencyRepository
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

// NewIdempotencyCache creates a new IdempotencyCache.
func NewIdempotencyCache(next usecase.IdempotencyRepository, client redis.Cmdable, ttl time.Duration, logger zerolog.Logger) *IdempotencyCache {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyCache{
		next:   next,
		client: client,
		prefix: "idempotency:",
		ttl:    ttl,
		logger: logger,
	}
}

type cachedRecord struct {
	MovementID string    `json:"movement_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Get returns the binding for key, consulting Redis first. Redis failures
// fall through to the backing repository.
func (c *IdempotencyCache) Get(ctx context.Context, key string) (*domain.IdempotencyRecord, bool, error) {
	fullKey := c.prefix + key

	raw, err := c.client.Get(ctx, fullKey).Bytes()
	switch {
	case err == nil:
		var rec cachedRecord
		if jsonErr := json.Unmarshal(raw, &rec); jsonErr == nil {
			return &domain.IdempotencyRecord{Key: key, MovementID: rec.MovementID, CreatedAt: rec.CreatedAt}, true, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency cache read failed")
	}

	record, found, err := c.next.Get(ctx, key)
	if err != nil || !found {
		return record, found, err
	}

	payload, err := json.Marshal(cachedRecord{MovementID: record.MovementID, CreatedAt: record.CreatedAt})
	if err == nil {
		if setErr := c.client.Set(ctx, fullKey, payload, c.ttl).Err(); setErr != nil {
			c.logger.Warn().Err(setErr).Str("idempotency_key", key).Msg("idempotency cache write failed")
		}
	}

	return record, true, nil
}

// Claim delegates to the backing repository.
func (c *IdempotencyCache) Claim(ctx context.Context, tx usecase.Transaction, record *domain.IdempotencyRecord) error {
	return c.next.Claim(ctx, tx, record)
}

// Release delegates to the backing repository.
func (c *IdempotencyCache) Release(ctx context.Context, tx usecase.Transaction, key string) error {
	return c.next.Release(ctx, tx, key)
}
