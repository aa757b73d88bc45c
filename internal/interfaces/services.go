package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/strata/internal/models"
)

// MarketAnalysisService exposes the aggregation engine to transport layers.
type MarketAnalysisService interface {
	// ListGroups returns the configured sector group names for a market.
	ListGroups(market string) []string

	// ResolveGroup maps a (market, group) selector to named instruments.
	ResolveGroup(ctx context.Context, market, group string) ([]models.Instrument, error)

	// AnalyzeSectorPerformance builds rebased indices for the given
	// sector tickers over [start, end], pivoted into date records.
	AnalyzeSectorPerformance(ctx context.Context, start, end time.Time, sectorTickers []string) ([]models.DateRecord, error)

	// RankMarketPerformance ranks a market's instruments by realized
	// return over [start, end].
	RankMarketPerformance(ctx context.Context, market string, start, end time.Time, topN int) (*models.MarketPerformance, error)

	// CompareInstruments rebases individual instruments onto a common
	// base for direct comparison.
	CompareInstruments(ctx context.Context, tickers []string, start, end time.Time) ([]models.DateRecord, error)
}
