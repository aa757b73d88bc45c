package market

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/strata/internal/models"
)

// ResolveTradingDay finds the nearest valid trading date at or before
// requested, probing backward one calendar day at a time. The requested
// date counts as the first of at most maxBacktrackDays attempts. Each
// probe is a cheap constituent-existence check against the provider.
// The first date that probes true wins.
func (s *Service) ResolveTradingDay(ctx context.Context, probeIndex string, requested time.Time, maxBacktrackDays int) (time.Time, error) {
	day := models.Day(requested)

	for i := 0; i < maxBacktrackDays; i++ {
		candidate := day.AddDate(0, 0, -i)

		if err := ctx.Err(); err != nil {
			return time.Time{}, err
		}

		if s.provider.HasDataOn(ctx, probeIndex, candidate) {
			if i > 0 {
				s.logger.Debug().
					Str("requested", models.DateKey(day)).
					Str("resolved", models.DateKey(candidate)).
					Msg("Trading day resolved by backtracking")
			}
			return candidate, nil
		}
	}

	return time.Time{}, fmt.Errorf("no valid trading day within %d attempts from %s: %w",
		maxBacktrackDays, models.DateKey(day), ErrNoTradingDay)
}
