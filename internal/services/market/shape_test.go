package market

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/strata/internal/models"
)

func TestPivotDated(t *testing.T) {
	d1 := day(2024, time.April, 1)
	d2 := day(2024, time.April, 2)
	d3 := day(2024, time.April, 3)

	groups := map[string]models.NormalizedIndex{
		"Tech": {
			{Date: d1, Value: 100},
			{Date: d2, Value: 105},
			{Date: d3, Value: 110},
		},
		"Bio": {
			// Bio's base date is later; it has no value on d1.
			{Date: d2, Value: 100},
			{Date: d3, Value: 98},
		},
	}

	records := PivotDated(groups)
	require.Len(t, records, 3)

	assert.Equal(t, "2024-04-01", records[0].Date)
	assert.Equal(t, "2024-04-02", records[1].Date)
	assert.Equal(t, "2024-04-03", records[2].Date)

	require.NotNil(t, records[0].Values["Tech"])
	assert.Equal(t, 100.0, *records[0].Values["Tech"])
	assert.Nil(t, records[0].Values["Bio"], "absent value is an explicit null")

	require.NotNil(t, records[2].Values["Bio"])
	assert.Equal(t, 98.0, *records[2].Values["Bio"])
}

func TestPivotDatedJSONShape(t *testing.T) {
	d1 := day(2024, time.April, 1)

	records := PivotDated(map[string]models.NormalizedIndex{
		"Tech": {{Date: d1, Value: 100}},
		"Bio":  nil,
	})
	require.Len(t, records, 1)

	data, err := json.Marshal(records[0])
	require.NoError(t, err)

	var flat map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &flat))

	assert.Equal(t, "2024-04-01", flat["date"])
	assert.Equal(t, 100.0, flat["Tech"])

	v, present := flat["Bio"]
	assert.True(t, present, "null group still serialized")
	assert.Nil(t, v)
}

func TestPivotDatedEmpty(t *testing.T) {
	assert.Empty(t, PivotDated(nil))
	assert.Empty(t, PivotDated(map[string]models.NormalizedIndex{}))
}
