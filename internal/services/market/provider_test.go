package market

import (
	"context"
	"time"

	"github.com/bobmcallan/strata/internal/common"
	"github.com/bobmcallan/strata/internal/models"
)

// fakeProvider implements interfaces.MarketDataProvider with pluggable
// behavior per method. Unset methods return empty results.
type fakeProvider struct {
	resolveName       func(ctx context.Context, ticker string) (string, error)
	hasDataOn         func(ctx context.Context, indexTicker string, date time.Time) bool
	fetchConstituents func(ctx context.Context, indexTicker string, date time.Time) ([]string, error)
	fetchPriceSeries  func(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error)
	listUniverse      func(ctx context.Context, market string) ([]models.Instrument, error)
	listIndices       func(ctx context.Context, market string) ([]string, error)
}

func (f *fakeProvider) ResolveName(ctx context.Context, ticker string) (string, error) {
	if f.resolveName != nil {
		return f.resolveName(ctx, ticker)
	}
	return ticker, nil
}

func (f *fakeProvider) HasDataOn(ctx context.Context, indexTicker string, date time.Time) bool {
	if f.hasDataOn != nil {
		return f.hasDataOn(ctx, indexTicker, date)
	}
	return false
}

func (f *fakeProvider) FetchConstituents(ctx context.Context, indexTicker string, date time.Time) ([]string, error) {
	if f.fetchConstituents != nil {
		return f.fetchConstituents(ctx, indexTicker, date)
	}
	return nil, nil
}

func (f *fakeProvider) FetchPriceSeries(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error) {
	if f.fetchPriceSeries != nil {
		return f.fetchPriceSeries(ctx, ticker, from, to)
	}
	return nil, nil
}

func (f *fakeProvider) ListUniverse(ctx context.Context, market string) ([]models.Instrument, error) {
	if f.listUniverse != nil {
		return f.listUniverse(ctx, market)
	}
	return nil, nil
}

func (f *fakeProvider) ListIndices(ctx context.Context, market string) ([]string, error) {
	if f.listIndices != nil {
		return f.listIndices(ctx, market)
	}
	return nil, nil
}

func newTestService(provider *fakeProvider) *Service {
	cfg := common.AnalysisConfig{
		Workers:          4,
		FetchTimeout:     "2s",
		PacingDelay:      "1ms",
		MaxBacktrackDays: 7,
		ReferenceTickers: map[string]string{"KOSPI": "REF"},
	}
	return NewService(provider, cfg, common.NewSilentLogger())
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seriesOf builds an ascending daily series starting at start with the
// given closes.
func seriesOf(start time.Time, closes ...float64) models.PriceSeries {
	series := make(models.PriceSeries, 0, len(closes))
	for i, c := range closes {
		series = append(series, models.PricePoint{Date: start.AddDate(0, 0, i), Close: c})
	}
	return series
}
