package market

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/strata/internal/models"
)

var pngHeader = []byte{0x89, 0x50, 0x4e, 0x47}

func TestRenderIndexChart(t *testing.T) {
	start := day(2024, time.June, 3)
	groups := map[string]models.NormalizedIndex{
		"Tech": {
			{Date: start, Value: 100},
			{Date: start.AddDate(0, 0, 1), Value: 104},
			{Date: start.AddDate(0, 0, 2), Value: 109},
		},
		"Bio": {
			{Date: start, Value: 100},
			{Date: start.AddDate(0, 0, 1), Value: 97},
			{Date: start.AddDate(0, 0, 2), Value: 95},
		},
	}

	png, err := RenderIndexChart("Sector Performance", groups)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngHeader), "output is a PNG")
}

func TestRenderIndexChartRejectsEmpty(t *testing.T) {
	_, err := RenderIndexChart("empty", nil)
	assert.Error(t, err)

	// Single-point series cannot be drawn as a line.
	_, err = RenderIndexChart("sparse", map[string]models.NormalizedIndex{
		"Tech": {{Date: day(2024, time.June, 3), Value: 100}},
	})
	assert.Error(t, err)
}
