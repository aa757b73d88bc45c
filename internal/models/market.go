// Package models defines data structures for Strata
package models

import (
	"encoding/json"
	"sort"
	"time"
)

// DateFormat is the wire format for trading dates.
const DateFormat = "2006-01-02"

// DateKey formats a time as a canonical date string.
func DateKey(t time.Time) string {
	return t.Format(DateFormat)
}

// Day truncates a time to its UTC calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Instrument identifies a tradable instrument or index within a market.
type Instrument struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// PricePoint is a single (date, close) observation.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is an ordered closing-price series for one instrument.
// Dates are strictly ascending and unique; closes are strictly positive.
type PriceSeries []PricePoint

// Normalize sorts the series ascending, removes duplicate dates (last
// observation wins) and drops non-positive closes.
func (s PriceSeries) Normalize() PriceSeries {
	if len(s) == 0 {
		return s
	}

	byDate := make(map[time.Time]float64, len(s))
	for _, p := range s {
		if p.Close <= 0 {
			continue
		}
		byDate[Day(p.Date)] = p.Close
	}

	out := make(PriceSeries, 0, len(byDate))
	for d, c := range byDate {
		out = append(out, PricePoint{Date: d, Close: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Clip returns the subseries with from <= date <= to.
func (s PriceSeries) Clip(from, to time.Time) PriceSeries {
	out := make(PriceSeries, 0, len(s))
	for _, p := range s {
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Closes returns a date-keyed lookup map for the series.
func (s PriceSeries) Closes() map[time.Time]float64 {
	m := make(map[time.Time]float64, len(s))
	for _, p := range s {
		m[p.Date] = p.Close
	}
	return m
}

// IndexPoint is a single (date, rebased value) observation.
type IndexPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// NormalizedIndex is a rebased performance series for one group or
// instrument: the first value is exactly 100, dates ascend, and gaps
// after the first value are forward-filled.
type NormalizedIndex []IndexPoint

// PerformanceRecord holds the realized return of one instrument over a window.
type PerformanceRecord struct {
	Ticker        string  `json:"ticker"`
	Name          string  `json:"name"`
	PercentChange float64 `json:"percent_change"`
}

// MarketPerformance holds ranked top and bottom performers for a market.
type MarketPerformance struct {
	Market string              `json:"market"`
	Top    []PerformanceRecord `json:"top_performers"`
	Bottom []PerformanceRecord `json:"bottom_performers"`
}

// DateRecord is one row of pivoted output: a date plus one value per
// group key. Groups without a value on the date carry an explicit null.
type DateRecord struct {
	Date   string
	Values map[string]*float64
}

// MarshalJSON flattens Values into top-level fields alongside "date".
func (r DateRecord) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(r.Values)+1)
	flat["date"] = r.Date
	for k, v := range r.Values {
		flat[k] = v
	}
	return json.Marshal(flat)
}

// UnmarshalJSON restores a DateRecord from its flattened form.
func (r *DateRecord) UnmarshalJSON(data []byte) error {
	var flat map[string]*json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	r.Values = make(map[string]*float64)
	for k, raw := range flat {
		if k == "date" {
			if raw != nil {
				if err := json.Unmarshal(*raw, &r.Date); err != nil {
					return err
				}
			}
			continue
		}
		if raw == nil {
			r.Values[k] = nil
			continue
		}
		var v *float64
		if err := json.Unmarshal(*raw, &v); err != nil {
			return err
		}
		r.Values[k] = v
	}
	return nil
}
