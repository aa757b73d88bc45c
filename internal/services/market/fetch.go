package market

import (
	"context"
	"errors"
	"time"

	"github.com/bobmcallan/strata/internal/interfaces"
	"github.com/bobmcallan/strata/internal/models"
)

// rateLimitBackoff is the pause before the single retry of a throttled fetch.
const rateLimitBackoff = 500 * time.Millisecond

// FetchAll retrieves closing-price series for every ticker over
// [start, end] through a bounded worker pool. Failed tickers are logged
// and omitted from the result map; one bad ticker never aborts the
// batch.
func (s *Service) FetchAll(ctx context.Context, tickers []string, start, end time.Time) map[string]models.PriceSeries {
	if len(tickers) == 0 {
		return map[string]models.PriceSeries{}
	}

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 8
	}

	semaphore := make(chan struct{}, workers)

	type fetchResult struct {
		ticker string
		series models.PriceSeries
		err    error
	}
	resultChan := make(chan fetchResult, len(tickers))

	for _, ticker := range tickers {
		go func(t string) {
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			series, err := s.fetchOne(ctx, t, start, end)
			resultChan <- fetchResult{ticker: t, series: series, err: err}
		}(ticker)
	}

	results := make(map[string]models.PriceSeries, len(tickers))
	for i := range tickers {
		result := <-resultChan
		if result.err != nil {
			s.logger.Warn().Str("ticker", result.ticker).Err(result.err).Msg("Failed to fetch price series")
		} else if len(result.series) > 0 {
			results[result.ticker] = result.series
		}
		if s.progressFn != nil {
			s.progressFn(i+1, len(tickers))
		}
	}
	close(resultChan)

	if len(results) == 0 {
		s.logger.Warn().Int("requested", len(tickers)).Msg("No price series fetched for any ticker")
	}

	return results
}

// fetchOne fetches a single ticker's series under the per-fetch
// deadline, retrying exactly once with backoff when throttled.
func (s *Service) fetchOne(ctx context.Context, ticker string, start, end time.Time) (models.PriceSeries, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.GetFetchTimeout())
	defer cancel()

	series, err := s.provider.FetchPriceSeries(fetchCtx, ticker, start, end)
	if err == nil {
		return series, nil
	}

	if !errors.Is(err, interfaces.ErrRateLimited) {
		return nil, err
	}

	// Single bounded retry after backoff; a second throttle gives up.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(rateLimitBackoff):
	}

	retryCtx, cancelRetry := context.WithTimeout(ctx, s.cfg.GetFetchTimeout())
	defer cancelRetry()

	return s.provider.FetchPriceSeries(retryCtx, ticker, start, end)
}
