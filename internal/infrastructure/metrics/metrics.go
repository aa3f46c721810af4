package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/walletledger/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	TransfersCompleted prometheus.Counter
	TransfersRejected  prometheus.Counter
	TransferDuplicates prometheus.Counter
	TransferDuration   *prometheus.HistogramVec
	TransferAmount     prometheus.Histogram
	TransferErrors     *prometheus.CounterVec

	// Account metrics
	AccountsOpened prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Storage metrics
	BreakerState prometheus.Gauge

	// Outbox metrics
	EventsPublished prometheus.Counter
	EventsFailed    prometheus.Counter

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all Prometheus metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Transfer metrics
		TransfersCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_transfers_completed_total",
			Help: "Total number of completed transfers",
		}),
		TransfersRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_transfers_rejected_total",
			Help: "Total number of transfers rejected for insufficient funds",
		}),
		TransferDuplicates: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_transfer_duplicates_total",
			Help: "Total number of transfers answered from an idempotency key",
		}),
		TransferDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletledger_transfer_duration_seconds",
				Help:    "Duration of transfer operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		TransferAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletledger_transfer_amount",
			Help:    "Completed transfer amounts in minor units",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		TransferErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_transfer_errors_total",
				Help: "Total number of transfer errors by type",
			},
			[]string{"error_type"},
		),

		// Account metrics
		AccountsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_accounts_opened_total",
			Help: "Total number of accounts opened",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Storage metrics
		BreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "walletledger_storage_breaker_state",
			Help: "Storage circuit breaker state (0 closed, 1 half-open, 2 open)",
		}),

		// Outbox metrics
		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_events_published_total",
			Help: "Total outbox events published",
		}),
		EventsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_events_failed_total",
			Help: "Total outbox events that failed to publish",
		}),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),
	}
}

// ObserveTransfer implements usecase.TransferObserver.
func (m *Metrics) ObserveTransfer(result *domain.TransferResult, err error, duration time.Duration) {
	outcome := transferOutcome(result, err)
	m.TransferDuration.WithLabelValues(outcome).Observe(duration.Seconds())

	switch outcome {
	case "completed":
		m.TransfersCompleted.Inc()
		m.TransferAmount.Observe(result.Movement.Amount.InexactFloat64())
	case "duplicate":
		m.TransferDuplicates.Inc()
	case "rejected":
		m.TransfersRejected.Inc()
	default:
		m.TransferErrors.WithLabelValues(outcome).Inc()
	}
}

// ObserveBreakerState records a breaker transition. The state follows
// gobreaker's numbering.
func (m *Metrics) ObserveBreakerState(state int) {
	m.BreakerState.Set(float64(state))
}

func transferOutcome(result *domain.TransferResult, err error) string {
	switch {
	case err == nil && result != nil && result.Duplicate:
		return "duplicate"
	case err == nil:
		return "completed"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "rejected"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrSelfTransfer),
		errors.Is(err, domain.ErrInvalidHandle),
		errors.Is(err, domain.ErrInvalidIdempotencyKey):
		return "invalid"
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return "conflict"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return "storage_unavailable"
	default:
		return "internal"
	}
}

// ObserveEventPublish counts one outbox publish attempt.
func (m *Metrics) ObserveEventPublish(err error) {
	if err != nil {
		m.EventsFailed.Inc()
		return
	}
	m.EventsPublished.Inc()
}
