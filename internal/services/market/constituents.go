package market

import (
	"context"
	"time"

	"github.com/bobmcallan/strata/internal/models"
)

// ResolveConstituents expands sector index tickers into their underlying
// equity tickers as composed on asOf. A sector that fails name or
// constituent lookup is skipped whole; it contributes nothing to the
// result. Returns the per-sector lists keyed by sector display name and
// the deduplicated union of underlying tickers in first-seen order.
func (s *Service) ResolveConstituents(ctx context.Context, sectorTickers []string, asOf time.Time) (map[string][]string, []string, error) {
	perSector := make(map[string][]string, len(sectorTickers))
	seen := make(map[string]bool)
	var unique []string

	for i, sectorTicker := range sectorTickers {
		if i > 0 {
			if err := s.pace(ctx); err != nil {
				return nil, nil, err
			}
		}

		name, err := s.provider.ResolveName(ctx, sectorTicker)
		if err != nil {
			s.logger.Warn().Str("sector", sectorTicker).Err(err).Msg("Failed to resolve sector name, skipping")
			continue
		}

		constituents, err := s.provider.FetchConstituents(ctx, sectorTicker, asOf)
		if err != nil {
			s.logger.Warn().Str("sector", sectorTicker).Err(err).Msg("Failed to fetch constituents, skipping")
			continue
		}

		perSector[name] = constituents
		for _, ticker := range constituents {
			if !seen[ticker] {
				seen[ticker] = true
				unique = append(unique, ticker)
			}
		}
	}

	if len(unique) == 0 {
		return nil, nil, ErrInsufficientData
	}

	s.logger.Debug().
		Int("sectors", len(perSector)).
		Int("unique_constituents", len(unique)).
		Str("as_of", models.DateKey(asOf)).
		Msg("Constituents resolved")

	return perSector, unique, nil
}

// pace inserts the configured delay between successive provider calls.
func (s *Service) pace(ctx context.Context) error {
	delay := s.cfg.GetPacingDelay()
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
