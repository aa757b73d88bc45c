package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/strata/internal/models"
)

func calendarOf(start time.Time, days int) []time.Time {
	calendar := make([]time.Time, 0, days)
	for i := 0; i < days; i++ {
		calendar = append(calendar, start.AddDate(0, 0, i))
	}
	return calendar
}

func fptr(v float64) *float64 { return &v }

func TestGroupMeans(t *testing.T) {
	start := day(2024, time.February, 1)
	calendar := calendarOf(start, 3)

	seriesMap := map[string]models.PriceSeries{
		"A": seriesOf(start, 100, 110, 120),
		"B": {
			{Date: start, Close: 200},
			{Date: start.AddDate(0, 0, 2), Close: 260}, // missing day 2
		},
	}

	means := groupMeans([]string{"A", "B"}, seriesMap, calendar)
	require.Len(t, means, 3)

	assert.Equal(t, 150.0, *means[0]) // (100+200)/2
	assert.Equal(t, 110.0, *means[1]) // B absent, mean of A alone
	assert.Equal(t, 190.0, *means[2]) // (120+260)/2
}

func TestGroupMeansNoUsableConstituents(t *testing.T) {
	calendar := calendarOf(day(2024, time.February, 1), 3)

	assert.Nil(t, groupMeans([]string{"X"}, map[string]models.PriceSeries{}, calendar))
	assert.Nil(t, groupMeans(nil, map[string]models.PriceSeries{}, calendar))
}

func TestFillForward(t *testing.T) {
	t.Run("carries last value forward", func(t *testing.T) {
		filled := fillForward([]*float64{fptr(1), nil, nil, fptr(4), nil})
		require.Len(t, filled, 5)
		assert.Equal(t, 1.0, *filled[1])
		assert.Equal(t, 1.0, *filled[2])
		assert.Equal(t, 4.0, *filled[4])
	})

	t.Run("leading gaps stay missing", func(t *testing.T) {
		filled := fillForward([]*float64{nil, nil, fptr(3)})
		assert.Nil(t, filled[0])
		assert.Nil(t, filled[1])
		assert.Equal(t, 3.0, *filled[2])
	})

	t.Run("idempotent", func(t *testing.T) {
		once := fillForward([]*float64{fptr(1), nil, fptr(3), nil})
		twice := fillForward(once)
		require.Len(t, twice, len(once))
		for i := range once {
			assert.Equal(t, once[i], twice[i])
		}
	})
}

func TestRebase(t *testing.T) {
	calendar := calendarOf(day(2024, time.February, 1), 4)

	t.Run("first value is exactly 100", func(t *testing.T) {
		index := rebase([]*float64{fptr(250), fptr(275), fptr(300), fptr(125)}, calendar)
		require.Len(t, index, 4)
		// The base value must be exactly 100, not approximately.
		assert.Equal(t, 100.0, index[0].Value)
		assert.InDelta(t, 110.0, index[1].Value, 1e-9)
		assert.InDelta(t, 120.0, index[2].Value, 1e-9)
		assert.InDelta(t, 50.0, index[3].Value, 1e-9)
	})

	t.Run("leading gaps are omitted, not extrapolated", func(t *testing.T) {
		index := rebase(fillForward([]*float64{nil, nil, fptr(200), fptr(220)}), calendar)
		require.Len(t, index, 2)
		assert.Equal(t, calendar[2], index[0].Date)
		assert.Equal(t, 100.0, index[0].Value)
		assert.InDelta(t, 110.0, index[1].Value, 1e-9)
	})

	t.Run("all missing yields nil", func(t *testing.T) {
		assert.Nil(t, rebase([]*float64{nil, nil}, calendar[:2]))
	})

	t.Run("non-positive base yields nil", func(t *testing.T) {
		assert.Nil(t, rebase([]*float64{fptr(0), fptr(10)}, calendar[:2]))
	})
}

func TestNormalizeGroupsAlignsToCalendar(t *testing.T) {
	start := day(2024, time.February, 1)
	// Reference calendar skips day 3 (e.g. a holiday).
	calendar := []time.Time{start, start.AddDate(0, 0, 1), start.AddDate(0, 0, 3)}

	seriesMap := map[string]models.PriceSeries{
		"A": seriesOf(start, 100, 110, 115, 120), // includes the off-calendar day 3
	}
	groups := map[string][]string{"Tech": {"A"}}

	indices := normalizeGroups(groups, seriesMap, calendar)
	require.Contains(t, indices, "Tech")

	index := indices["Tech"]
	require.Len(t, index, 3)

	allowed := make(map[time.Time]bool, len(calendar))
	for _, d := range calendar {
		allowed[d] = true
	}
	for _, p := range index {
		assert.True(t, allowed[p.Date], "index date %s not on reference calendar", p.Date)
	}

	// The off-calendar observation never leaks into the index.
	assert.Equal(t, 100.0, index[0].Value)
	assert.InDelta(t, 110.0, index[1].Value, 1e-9)
	assert.InDelta(t, 120.0, index[2].Value, 1e-9)
}

func TestNormalizeGroupsSkipsEmptyGroups(t *testing.T) {
	calendar := calendarOf(day(2024, time.February, 1), 2)
	groups := map[string][]string{
		"Tech":  {"A"},
		"Ghost": {"MISSING"},
	}
	seriesMap := map[string]models.PriceSeries{
		"A": seriesOf(day(2024, time.February, 1), 100, 105),
	}

	indices := normalizeGroups(groups, seriesMap, calendar)

	assert.Contains(t, indices, "Tech")
	assert.NotContains(t, indices, "Ghost")
}
