package market

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/strata/internal/models"
)

// GroupAll selects every index ticker known for a market instead of a
// configured sector group.
const GroupAll = "all"

// nameLookupConcurrency bounds parallel display-name lookups.
const nameLookupConcurrency = 4

// sectorGroups maps (market, group) selectors to KRX sector index
// tickers. Index composition is resolved per request; only the grouping
// itself is static.
var sectorGroups = map[string]map[string][]string{
	"KOSPI": {
		"Technology":    {"1027", "1155"},
		"Financials":    {"1021", "1157"},
		"Industrials":   {"1017", "1152"},
		"Consumer":      {"1015", "1154"},
		"Healthcare":    {"1150"},
		"Materials":     {"1014", "1151"},
		"Energy & Util": {"1153", "1156"},
	},
	"KOSDAQ": {
		"Technology": {"2031", "2037"},
		"Bio":        {"2041"},
		"Consumer":   {"2036"},
		"Industrial": {"2034", "2035"},
	},
}

// ListGroups returns the configured sector group names for a market,
// sorted, with the "all" pseudo-group appended.
func (s *Service) ListGroups(market string) []string {
	groups := sectorGroups[strings.ToUpper(market)]

	names := make([]string, 0, len(groups)+1)
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return append(names, GroupAll)
}

// ResolveGroup maps a (market, group) selector to named instruments.
// "all" expands to every index ticker the provider knows for the
// market. Name-lookup failures drop the ticker, never the call.
func (s *Service) ResolveGroup(ctx context.Context, market, group string) ([]models.Instrument, error) {
	var tickers []string

	if strings.EqualFold(group, GroupAll) {
		all, err := s.provider.ListIndices(ctx, strings.ToUpper(market))
		if err != nil {
			return nil, fmt.Errorf("failed to list indices for %s: %w", market, err)
		}
		tickers = all
	} else {
		tickers = sectorGroups[strings.ToUpper(market)][group]
	}

	// Resolve display names with bounded parallelism; a failed lookup
	// drops that ticker from the result with a diagnostic.
	resolved := make([]*models.Instrument, len(tickers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(nameLookupConcurrency)

	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			name, err := s.provider.ResolveName(gctx, ticker)
			if err != nil {
				s.logger.Warn().Str("ticker", ticker).Err(err).Msg("Failed to resolve instrument name")
				return nil // non-fatal
			}
			mu.Lock()
			resolved[i] = &models.Instrument{Ticker: ticker, Name: name}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	instruments := make([]models.Instrument, 0, len(tickers))
	for _, inst := range resolved {
		if inst != nil {
			instruments = append(instruments, *inst)
		}
	}
	return instruments, nil
}
