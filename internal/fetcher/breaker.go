package fetcher

import (
	"context"
	"errors"

	gobreaker "github.com/sony/gobreaker/v2"

	"trials-map/internal/config"
	"trials-map/internal/logging"
	"trials-map/internal/metrics"
	"trials-map/internal/model"
)

// Ensure Breaker implements Fetcher
var _ Fetcher = (*Breaker)(nil)

// Breaker guards a Fetcher with a circuit breaker. An open circuit is
// reported as ErrNoData like any other fetch failure. Only transport errors,
// malformed bodies and 5xx/429 responses count against the registry; empty
// results and other 4xx answers are caused by the query.
type Breaker struct {
	next Fetcher
	cb   *gobreaker.CircuitBreaker[model.Table]
}

// NewBreaker wraps next. It opens after FailureThreshold consecutive
// failures and probes again after Timeout.
func NewBreaker(next Fetcher, cfg config.BreakerConfig) *Breaker {
	name := "registry-" + next.Name()
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	log := logging.With().Str("breaker", name).Logger()

	cb := gobreaker.NewCircuitBreaker[model.Table](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		IsSuccessful: registryHealthy,
	})

	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) Name() string { return b.next.Name() }

// State reports the breaker state; /health exposes it.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

func (b *Breaker) Fetch(ctx context.Context, searchExpr string, fields []string, maxStudies int) (model.Table, error) {
	table, err := b.cb.Execute(func() (model.Table, error) {
		return b.next.Fetch(ctx, searchExpr, fields, maxStudies)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fail(b.Name(), "breaker_open", err)
		}
		return nil, err
	}
	return table, nil
}

// registryHealthy reports whether err leaves the registry's health intact.
func registryHealthy(err error) bool {
	if err == nil || errors.Is(err, errEmpty) || errors.Is(err, context.Canceled) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return !se.Transient()
	}
	return false
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

