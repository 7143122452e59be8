package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mediakeeper/internal/common"
	"github.com/dmitrijs2005/mediakeeper/internal/logging"
	"github.com/dmitrijs2005/mediakeeper/internal/metrics"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the breaker. Zero values pick the defaults.
type BreakerConfig struct {
	Name             string
	ConsecutiveFails uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
}

// Breaker wraps a Client in a circuit breaker. Only ErrUnavailable counts
// as a failure; a rejected request proves the store is up. While the
// breaker is open every call fails fast with ErrUnavailable.
type Breaker struct {
	next   Client
	cb     *gobreaker.CircuitBreaker[any]
	name   string
	logger logging.Logger
}

func NewBreaker(next Client, cfg BreakerConfig, l logging.Logger) *Breaker {
	if cfg.Name == "" {
		cfg.Name = "authoritative-store"
	}
	if cfg.ConsecutiveFails == 0 {
		cfg.ConsecutiveFails = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}

	b := &Breaker{next: next, name: cfg.Name, logger: l.With("module", "breaker", "name", cfg.Name)}

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFails
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, common.ErrUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Info(context.Background(), "circuit breaker state changed", "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
	return b
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// State returns the breaker state name.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

func (b *Breaker) execute(fn func() (any, error)) (any, error) {
	res, err := b.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}
	return res, err
}

func (b *Breaker) Upsert(ctx context.Context, entityType string, p models.Payload) (models.Payload, error) {
	res, err := b.execute(func() (any, error) {
		return b.next.Upsert(ctx, entityType, p)
	})
	if err != nil {
		return nil, err
	}
	out, _ := res.(models.Payload)
	return out, nil
}

func (b *Breaker) Delete(ctx context.Context, entityType, id string) (bool, error) {
	res, err := b.execute(func() (any, error) {
		return b.next.Delete(ctx, entityType, id)
	})
	if err != nil {
		return false, err
	}
	existed, _ := res.(bool)
	return existed, nil
}

func (b *Breaker) ListAll(ctx context.Context, entityType string) ([]models.Payload, error) {
	res, err := b.execute(func() (any, error) {
		return b.next.ListAll(ctx, entityType)
	})
	if err != nil {
		return nil, err
	}
	out, _ := res.([]models.Payload)
	return out, nil
}

// Ping bypasses the breaker so the network monitor always sees the real
// reachability.
func (b *Breaker) Ping(ctx context.Context) error {
	return b.next.Ping(ctx)
}

func (b *Breaker) Close() error {
	return b.next.Close()
}
