package krx

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "-" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

type nameResponse struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

type constituentsResponse struct {
	Ticker       string   `json:"ticker"`
	Date         string   `json:"date"`
	Constituents []string `json:"constituents"`
}

type ohlcvBar struct {
	Date   string      `json:"date"`
	Open   flexFloat64 `json:"open"`
	High   flexFloat64 `json:"high"`
	Low    flexFloat64 `json:"low"`
	Close  flexFloat64 `json:"close"`
	Volume int64       `json:"volume"`
}

type ohlcvResponse struct {
	Ticker string     `json:"ticker"`
	Data   []ohlcvBar `json:"data"`
}

type listingRow struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

type listingResponse struct {
	Market      string       `json:"market"`
	Instruments []listingRow `json:"instruments"`
}

type indexListResponse struct {
	Market  string   `json:"market"`
	Tickers []string `json:"tickers"`
}
