package market

import (
	"time"

	"github.com/bobmcallan/strata/internal/models"
)

// buildCalendar extracts the canonical calendar from the reference
// instrument's series: its ascending, deduplicated date set.
func buildCalendar(reference models.PriceSeries) []time.Time {
	calendar := make([]time.Time, 0, len(reference))
	for _, p := range reference {
		calendar = append(calendar, p.Date)
	}
	return calendar
}

// groupMeans computes, for every calendar date, the arithmetic mean of
// the available constituent closes. Constituents missing a value on a
// date are excluded from that date's mean, not counted as zero. A date
// where no constituent has a value yields nil.
func groupMeans(constituents []string, seriesMap map[string]models.PriceSeries, calendar []time.Time) []*float64 {
	lookups := make([]map[time.Time]float64, 0, len(constituents))
	for _, ticker := range constituents {
		if series, ok := seriesMap[ticker]; ok && len(series) > 0 {
			lookups = append(lookups, series.Closes())
		}
	}
	if len(lookups) == 0 {
		return nil
	}

	means := make([]*float64, len(calendar))
	for i, date := range calendar {
		var sum float64
		var count int
		for _, closes := range lookups {
			if close, ok := closes[date]; ok {
				sum += close
				count++
			}
		}
		if count > 0 {
			mean := sum / float64(count)
			means[i] = &mean
		}
	}
	return means
}

// fillForward carries the last known value into subsequent missing
// positions. Leading missing positions stay missing: no back-fill, no
// extrapolation. Applying it to an already-filled slice is a no-op.
func fillForward(values []*float64) []*float64 {
	filled := make([]*float64, len(values))
	var last *float64
	for i, v := range values {
		if v != nil {
			last = v
		}
		filled[i] = last
	}
	return filled
}

// rebase scales filled means into an index whose first present value is
// exactly 100. Calendar positions before the first valid mean are
// omitted from the output.
func rebase(filled []*float64, calendar []time.Time) models.NormalizedIndex {
	first := -1
	for i, v := range filled {
		if v != nil {
			first = i
			break
		}
	}
	if first < 0 {
		return nil
	}

	base := *filled[first]
	if base <= 0 {
		return nil
	}

	index := make(models.NormalizedIndex, 0, len(filled)-first)
	for i := first; i < len(filled); i++ {
		index = append(index, models.IndexPoint{
			Date:  calendar[i],
			Value: *filled[i] / base * 100,
		})
	}
	return index
}

// normalizeGroups aligns every group's constituents onto the canonical
// calendar and produces one rebased, forward-filled index per group.
// Groups with no usable constituent series are absent from the output.
func normalizeGroups(groups map[string][]string, seriesMap map[string]models.PriceSeries, calendar []time.Time) map[string]models.NormalizedIndex {
	indices := make(map[string]models.NormalizedIndex, len(groups))

	for name, constituents := range groups {
		means := groupMeans(constituents, seriesMap, calendar)
		if means == nil {
			continue
		}
		if index := rebase(fillForward(means), calendar); index != nil {
			indices[name] = index
		}
	}

	return indices
}
