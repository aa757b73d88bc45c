package market

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/strata/internal/models"
)

// seriesPalette cycles across groups in name order.
var seriesPalette = []string{
	"2563eb", // blue-600
	"dc2626", // red-600
	"16a34a", // green-600
	"d97706", // amber-600
	"7c3aed", // violet-600
	"0891b2", // cyan-600
	"db2777", // pink-600
}

// RenderIndexChart renders a PNG line chart of normalized indices, one
// series per group. Returns raw PNG bytes.
func RenderIndexChart(title string, groups map[string]models.NormalizedIndex) ([]byte, error) {
	names := make([]string, 0, len(groups))
	for name, index := range groups {
		if len(index) >= 2 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("need at least one group with 2 data points")
	}
	sort.Strings(names)

	series := make([]chart.Series, 0, len(names))
	for i, name := range names {
		index := groups[name]

		xValues := make([]time.Time, len(index))
		yValues := make([]float64, len(index))
		for j, p := range index {
			xValues[j] = p.Date
			yValues[j] = p.Value
		}

		series = append(series, chart.TimeSeries{
			Name: name,
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex(seriesPalette[i%len(seriesPalette)]),
				StrokeWidth: 2.0,
			},
			XValues: xValues,
			YValues: yValues,
		})
	}

	graph := chart.Chart{
		Title:  title,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
