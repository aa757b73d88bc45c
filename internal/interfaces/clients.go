// Package interfaces defines service contracts for Strata
package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/bobmcallan/strata/internal/models"
)

// Provider unit failures. Batch operations absorb these per unit;
// they never escape a batch as a whole.
var (
	// ErrNotFound indicates the lookup target does not exist upstream.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates upstream throttling (HTTP 429).
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates a single call exceeded its deadline.
	ErrTimeout = errors.New("timeout")
)

// MarketDataProvider supplies historical market data from an external vendor.
type MarketDataProvider interface {
	// ResolveName returns the display name for a ticker.
	ResolveName(ctx context.Context, ticker string) (string, error)

	// HasDataOn reports whether the index has constituent data on the
	// date. It never fails: absence and errors both report false.
	HasDataOn(ctx context.Context, indexTicker string, date time.Time) bool

	// FetchConstituents returns the underlying equity tickers of an
	// index as composed on the given date.
	FetchConstituents(ctx context.Context, indexTicker string, date time.Time) ([]string, error)

	// FetchPriceSeries returns the closing-price series for a ticker
	// over [from, to], ascending and deduplicated.
	FetchPriceSeries(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error)

	// ListUniverse returns every listed instrument for a market.
	ListUniverse(ctx context.Context, market string) ([]models.Instrument, error)

	// ListIndices returns every index ticker known for a market.
	ListIndices(ctx context.Context, market string) ([]string, error)
}
