package market

import (
	"sort"
	"time"

	"github.com/bobmcallan/strata/internal/models"
)

// PivotDated converts column-oriented per-group indices into
// row-oriented, date-keyed records. One record per date in the union of
// all groups' dates, ascending; a group without a value on a date
// contributes an explicit null rather than dropping the record.
func PivotDated(groups map[string]models.NormalizedIndex) []models.DateRecord {
	dateSet := make(map[time.Time]bool)
	for _, index := range groups {
		for _, p := range index {
			dateSet[p.Date] = true
		}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	valuesAt := make(map[string]map[time.Time]float64, len(groups))
	for name, index := range groups {
		lookup := make(map[time.Time]float64, len(index))
		for _, p := range index {
			lookup[p.Date] = p.Value
		}
		valuesAt[name] = lookup
	}

	records := make([]models.DateRecord, 0, len(dates))
	for _, date := range dates {
		record := models.DateRecord{
			Date:   models.DateKey(date),
			Values: make(map[string]*float64, len(groups)),
		}
		for name := range groups {
			if v, ok := valuesAt[name][date]; ok {
				value := v
				record.Values[name] = &value
			} else {
				record.Values[name] = nil
			}
		}
		records = append(records, record)
	}

	return records
}
