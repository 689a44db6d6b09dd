package embedder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/PelvinDreams/generellem/components"
)

// Default circuit breaker settings.
const (
	defaultBreakerMaxFailures uint32        = 5
	defaultBreakerTimeout     time.Duration = 30 * time.Second
	defaultBreakerInterval    time.Duration = 60 * time.Second
)

// BreakerConfig configures the circuit breaker behavior.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32 `yaml:"max_failures"`
	// Timeout is how long the circuit stays open before transitioning to half-open.
	Timeout time.Duration `yaml:"timeout"`
	// Interval is the cyclic period of the closed state for clearing failure counts.
	// If 0, failures never reset until the circuit opens.
	Interval time.Duration `yaml:"interval"`
}

// BreakerProvider wraps a Provider with circuit breaker protection. When the
// wrapped provider fails repeatedly, the circuit opens and subsequent calls
// fail fast without reaching the provider, preventing retry storms against a
// host that is already down. Open-circuit rejections surface as transient
// ProviderErrors so the resilience policy treats them like any other outage.
type BreakerProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker[*EmbeddingResponse]
	logger  *slog.Logger
}

var _ Provider = (*BreakerProvider)(nil)

// NewBreakerProvider wraps inner with a circuit breaker.
// If cfg is zero-valued, sensible defaults are used.
func NewBreakerProvider(inner Provider, cfg BreakerConfig, logger *slog.Logger) *BreakerProvider {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultBreakerInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker[*EmbeddingResponse](gobreaker.Settings{
		Name:        "embedder:" + inner.Name(),
		MaxRequests: 1, // allow 1 probe in half-open state
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			// The ingestion-required signal is a domain condition, not a
			// provider fault; it must not trip the circuit.
			return err == nil || errors.Is(err, ErrIngestionRequired)
		},
	})

	return &BreakerProvider{
		inner:   inner,
		breaker: cb,
		logger:  logger,
	}
}

// Name implements Provider.
func (p *BreakerProvider) Name() ProviderName { return p.inner.Name() }

// CreateEmbeddings implements Provider. Calls are routed through the circuit breaker.
func (p *BreakerProvider) CreateEmbeddings(ctx context.Context, req *EmbeddingRequest, usage *components.Usage) (*EmbeddingResponse, error) {
	resp, err := p.breaker.Execute(func() (*EmbeddingResponse, error) {
		return p.inner.CreateEmbeddings(ctx, req, usage)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &ProviderError{Err: fmt.Errorf("provider %q circuit open: %w", p.inner.Name(), err)}
		}
		return nil, err
	}
	return resp, nil
}

// State returns the current circuit breaker state for monitoring.
func (p *BreakerProvider) State() gobreaker.State {
	return p.breaker.State()
}

// Counts returns the current circuit breaker failure/success counts.
func (p *BreakerProvider) Counts() gobreaker.Counts {
	return p.breaker.Counts()
}
