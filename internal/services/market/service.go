// Package market implements the aggregation and normalization engine:
// it resolves instrument universes, fetches historical price series in
// bulk, aligns them onto a canonical calendar, rebases them into
// comparable indices and ranks realized returns.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/strata/internal/common"
	"github.com/bobmcallan/strata/internal/interfaces"
	"github.com/bobmcallan/strata/internal/models"
)

// defaultMarket anchors the canonical calendar for sector analysis;
// sector index tickers are market-scoped KRX codes.
const defaultMarket = "KOSPI"

// fallbackReference is used when no reference instrument is configured.
const fallbackReference = "005930"

// Service implements MarketAnalysisService
type Service struct {
	provider   interfaces.MarketDataProvider
	cfg        common.AnalysisConfig
	logger     *common.Logger
	progressFn func(done, total int)
}

var _ interfaces.MarketAnalysisService = (*Service)(nil)

// NewService creates a new market analysis service
func NewService(provider interfaces.MarketDataProvider, cfg common.AnalysisConfig, logger *common.Logger) *Service {
	return &Service{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
	}
}

// SetProgressCallback registers a callback invoked after each completed
// fetch in a batch. Used by interactive callers; nil disables it.
func (s *Service) SetProgressCallback(fn func(done, total int)) {
	s.progressFn = fn
}

// referenceTicker returns the canonical calendar instrument for a market.
func (s *Service) referenceTicker(market string) string {
	if t := s.cfg.ReferenceTicker(market); t != "" {
		return t
	}
	return fallbackReference
}

// fetchCalendar loads the reference instrument's series and derives the
// canonical calendar from it.
func (s *Service) fetchCalendar(ctx context.Context, market string, start, end time.Time) ([]time.Time, error) {
	reference := s.referenceTicker(market)

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.GetFetchTimeout())
	defer cancel()

	series, err := s.provider.FetchPriceSeries(fetchCtx, reference, models.Day(start), models.Day(end))
	if err != nil {
		return nil, fmt.Errorf("reference %s: %v: %w", reference, err, ErrNoCanonicalCalendar)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("reference %s has no data in window: %w", reference, ErrNoCanonicalCalendar)
	}

	return buildCalendar(series), nil
}

// SectorIndices builds one rebased index per requested sector over
// [start, end]. The constituent snapshot date is the nearest trading
// day at or before end, probed via the first requested sector.
func (s *Service) SectorIndices(ctx context.Context, start, end time.Time, sectorTickers []string) (map[string]models.NormalizedIndex, error) {
	if len(sectorTickers) == 0 {
		return nil, ErrInsufficientData
	}

	asOf, err := s.ResolveTradingDay(ctx, sectorTickers[0], end, s.cfg.MaxBacktrackDays)
	if err != nil {
		return nil, err
	}

	perSector, unique, err := s.ResolveConstituents(ctx, sectorTickers, asOf)
	if err != nil {
		return nil, err
	}

	seriesMap := s.FetchAll(ctx, unique, models.Day(start), models.Day(end))

	calendar, err := s.fetchCalendar(ctx, defaultMarket, start, end)
	if err != nil {
		return nil, err
	}

	indices := normalizeGroups(perSector, seriesMap, calendar)
	if len(indices) == 0 {
		return nil, ErrInsufficientData
	}

	s.logger.Info().
		Int("sectors", len(indices)).
		Int("constituents", len(unique)).
		Int("fetched", len(seriesMap)).
		Str("as_of", models.DateKey(asOf)).
		Msg("Sector indices computed")

	return indices, nil
}

// AnalyzeSectorPerformance builds rebased sector indices and pivots
// them into date-keyed records for transport.
func (s *Service) AnalyzeSectorPerformance(ctx context.Context, start, end time.Time, sectorTickers []string) ([]models.DateRecord, error) {
	indices, err := s.SectorIndices(ctx, start, end, sectorTickers)
	if err != nil {
		return nil, err
	}
	return PivotDated(indices), nil
}

// CompareIndices rebases each instrument onto the canonical calendar as
// its own single-constituent group, keyed by ticker.
func (s *Service) CompareIndices(ctx context.Context, tickers []string, start, end time.Time) (map[string]models.NormalizedIndex, error) {
	if len(tickers) == 0 {
		return nil, ErrInsufficientData
	}

	seriesMap := s.FetchAll(ctx, tickers, models.Day(start), models.Day(end))

	calendar, err := s.fetchCalendar(ctx, defaultMarket, start, end)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]string, len(tickers))
	for _, ticker := range tickers {
		groups[ticker] = []string{ticker}
	}

	indices := normalizeGroups(groups, seriesMap, calendar)
	if len(indices) == 0 {
		return nil, ErrInsufficientData
	}
	return indices, nil
}

// CompareInstruments rebases individual instruments onto a common base
// and pivots the result into date-keyed records.
func (s *Service) CompareInstruments(ctx context.Context, tickers []string, start, end time.Time) ([]models.DateRecord, error) {
	indices, err := s.CompareIndices(ctx, tickers, start, end)
	if err != nil {
		return nil, err
	}
	return PivotDated(indices), nil
}

// RankMarketPerformance ranks every instrument in a market by realized
// return over [start, end] and returns the topN best and worst.
func (s *Service) RankMarketPerformance(ctx context.Context, market string, start, end time.Time, topN int) (*models.MarketPerformance, error) {
	if topN <= 0 {
		topN = 10
	}

	instruments, err := s.provider.ListUniverse(ctx, market)
	if err != nil {
		return nil, fmt.Errorf("failed to list universe for %s: %w", market, err)
	}
	if len(instruments) == 0 {
		return nil, ErrInsufficientData
	}

	order := make([]string, 0, len(instruments))
	names := make(map[string]string, len(instruments))
	for _, inst := range instruments {
		order = append(order, inst.Ticker)
		names[inst.Ticker] = inst.Name
	}

	seriesMap := s.FetchAll(ctx, order, models.Day(start), models.Day(end))

	top, bottom := rankPerformance(seriesMap, names, order, start, end, topN)
	if len(top) == 0 {
		return nil, ErrInsufficientData
	}

	s.logger.Info().
		Str("market", market).
		Int("universe", len(order)).
		Int("qualifying", len(top)+len(bottom)).
		Msg("Market performance ranked")

	return &models.MarketPerformance{Market: market, Top: top, Bottom: bottom}, nil
}
