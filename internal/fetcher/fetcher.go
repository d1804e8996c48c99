// Package fetcher retrieves study records from the ClinicalTrials.gov
// registry as a rectangular table whose first row is the header.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"trials-map/internal/config"
	"trials-map/internal/logging"
	"trials-map/internal/metrics"
	"trials-map/internal/model"
)

// ErrNoData is returned for every fetch failure: transport errors, non-200
// responses, malformed bodies and empty results. Callers never receive a
// partial table.
var ErrNoData = errors.New("no clinical trials data")

// errEmpty marks a well-formed response without any study rows.
var errEmpty = errors.New("registry returned no studies")

// StatusError is a non-200 registry response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("registry returned HTTP %d", e.Code)
}

// Transient reports whether the status points at the registry rather than
// the query: 5xx and 429.
func (e *StatusError) Transient() bool {
	return e.Code >= http.StatusInternalServerError || e.Code == http.StatusTooManyRequests
}

// Fetcher retrieves up to maxStudies studies matching searchExpr, with the
// requested fields as columns.
type Fetcher interface {
	Fetch(ctx context.Context, searchExpr string, fields []string, maxStudies int) (model.Table, error)
	Name() string
}

// New builds the configured strategy wrapped in a circuit breaker.
func New(cfg config.FetcherConfig) (Fetcher, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	var f Fetcher
	switch cfg.Strategy {
	case config.StrategyDownload, "":
		f = &DownloadFetcher{
			Client:        client,
			BaseURL:       cfg.BaseURL,
			UserAgent:     cfg.UserAgent,
			MaxFieldBytes: cfg.MaxFieldBytes,
			MaxBodyBytes:  cfg.MaxBodyBytes,
		}
	case config.StrategyStudies:
		f = &StudiesFetcher{
			Client:       client,
			BaseURL:      cfg.BaseURL,
			UserAgent:    cfg.UserAgent,
			MaxBodyBytes: cfg.MaxBodyBytes,
		}
	default:
		return nil, fmt.Errorf("unknown fetch strategy %q", cfg.Strategy)
	}

	return NewBreaker(f, cfg.Breaker), nil
}

// fail wraps cause as ErrNoData and counts it.
func fail(strategy, reason string, cause error) error {
	metrics.FetchErrors.WithLabelValues(strategy, reason).Inc()
	return fmt.Errorf("%w: %w", ErrNoData, cause)
}

// observe records duration and result size of one fetch.
func observe(strategy string, start time.Time, table model.Table, err error) {
	metrics.FetchDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
	if err != nil {
		logging.Warn().Err(err).Str("strategy", strategy).Dur("took", time.Since(start)).Msg("registry fetch failed")
		return
	}
	rows := len(table.Rows())
	metrics.FetchedStudies.Observe(float64(rows))
	logging.Debug().Str("strategy", strategy).Int("studies", rows).Dur("took", time.Since(start)).Msg("registry fetch done")
}

const (
	defaultMaxFieldBytes = 10 << 20
	defaultMaxBodyBytes  = 256 << 20
)

func bodyLimit(n int64) int64 {
	if n <= 0 {
		return defaultMaxBodyBytes
	}
	return n
}

func httpClient(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}
