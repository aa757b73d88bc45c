package market

import (
	"sort"
	"time"

	"github.com/bobmcallan/strata/internal/models"
)

// rankPerformance computes the percent change of every qualifying
// ticker over [start, end] and selects the topN best and worst.
// A ticker qualifies with at least two points inside the window and a
// strictly positive first close; anything else is excluded, not
// zero-filled. Sorting is stable on the supplied order, descending by
// percent change. Bottom is the tail of the same sort, reversed so the
// worst performer comes first; top and bottom overlap when fewer than
// 2×topN tickers qualify, which is expected.
func rankPerformance(seriesMap map[string]models.PriceSeries, names map[string]string, order []string, start, end time.Time, topN int) (top, bottom []models.PerformanceRecord) {
	records := make([]models.PerformanceRecord, 0, len(order))

	for _, ticker := range order {
		series, ok := seriesMap[ticker]
		if !ok {
			continue
		}

		window := series.Clip(models.Day(start), models.Day(end))
		if len(window) < 2 {
			continue
		}

		first := window[0].Close
		last := window[len(window)-1].Close
		if first <= 0 {
			continue
		}

		name := names[ticker]
		if name == "" {
			name = ticker
		}

		records = append(records, models.PerformanceRecord{
			Ticker:        ticker,
			Name:          name,
			PercentChange: (last - first) / first * 100,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PercentChange > records[j].PercentChange
	})

	n := topN
	if n > len(records) {
		n = len(records)
	}

	top = append(top, records[:n]...)

	tail := records[len(records)-n:]
	bottom = make([]models.PerformanceRecord, 0, n)
	for i := len(tail) - 1; i >= 0; i-- {
		bottom = append(bottom, tail[i])
	}

	return top, bottom
}
