package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/strata/internal/common"
	"github.com/bobmcallan/strata/internal/interfaces"
	"github.com/bobmcallan/strata/internal/models"
	"github.com/bobmcallan/strata/internal/services/market"
)

// stubProvider serves a small fixed dataset: two sector indices with
// three constituents plus a reference instrument, over 2024-05-01..03.
type stubProvider struct{}

var (
	stubStart = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	stubEnd   = time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)

	stubNames = map[string]string{
		"1027": "Tech",
		"1021": "Financials",
		"A":    "Alpha",
		"B":    "Beta",
		"C":    "Gamma",
	}
	stubMembers = map[string][]string{
		"1027": {"A", "B"},
		"1021": {"C"},
	}
	stubCloses = map[string][]float64{
		"A":   {100, 110, 120},
		"B":   {200, 210, 220},
		"C":   {50, 55, 60},
		"REF": {1000, 1010, 1020},
	}
)

func (stubProvider) ResolveName(_ context.Context, ticker string) (string, error) {
	if name, ok := stubNames[ticker]; ok {
		return name, nil
	}
	return "", interfaces.ErrNotFound
}

func (stubProvider) HasDataOn(_ context.Context, _ string, date time.Time) bool {
	return !date.Before(stubStart) && !date.After(stubEnd)
}

func (stubProvider) FetchConstituents(_ context.Context, ticker string, _ time.Time) ([]string, error) {
	if m, ok := stubMembers[ticker]; ok {
		return m, nil
	}
	return nil, interfaces.ErrNotFound
}

func (stubProvider) FetchPriceSeries(_ context.Context, ticker string, _, _ time.Time) (models.PriceSeries, error) {
	closes, ok := stubCloses[ticker]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	series := make(models.PriceSeries, 0, len(closes))
	for i, c := range closes {
		series = append(series, models.PricePoint{Date: stubStart.AddDate(0, 0, i), Close: c})
	}
	return series, nil
}

func (stubProvider) ListUniverse(_ context.Context, _ string) ([]models.Instrument, error) {
	return []models.Instrument{
		{Ticker: "A", Name: "Alpha"},
		{Ticker: "B", Name: "Beta"},
		{Ticker: "C", Name: "Gamma"},
	}, nil
}

func (stubProvider) ListIndices(_ context.Context, _ string) ([]string, error) {
	return []string{"1027", "1021"}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	config := common.NewDefaultConfig()
	config.Analysis.PacingDelay = "1ms"
	config.Analysis.ReferenceTickers = map[string]string{"KOSPI": "REF"}

	logger := common.NewSilentLogger()
	svc := market.NewService(stubProvider{}, config.Analysis, logger)

	return NewServer(config, svc, logger)
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestVersionEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/version")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body, "version")
	assert.Contains(t, body, "build")
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/health")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Header().Get("Allow"), http.MethodGet)
}

func TestGroupList(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/markets/KOSPI/groups")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "KOSPI", body["market"])

	groups, ok := body["groups"].([]interface{})
	require.True(t, ok)
	assert.Contains(t, groups, "Technology")
	assert.Contains(t, groups, "all")
}

func TestGroupResolveAll(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/markets/KOSPI/groups/all")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	instruments, ok := body["instruments"].([]interface{})
	require.True(t, ok)
	assert.Len(t, instruments, 2)
}

func TestSectorPerformance(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet,
		"/api/sectors/performance?sectors=1027,1021&start=2024-05-01&end=2024-05-03")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "2024-05-01", body["start"])

	data, ok := body["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, 3)

	first, ok := data[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2024-05-01", first["date"])
	assert.Equal(t, 100.0, first["Tech"])
	assert.Equal(t, 100.0, first["Financials"])
}

func TestSectorPerformanceInsufficientData(t *testing.T) {
	s := newTestServer(t)
	// Unknown sector tickers resolve to nothing; the window is valid.
	rec := doRequest(t, s, http.MethodGet,
		"/api/sectors/performance?sectors=9998,9999&start=2024-05-01&end=2024-05-03")

	// Filtered-empty is an explicit empty result, not an error status.
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "insufficient_data", body["code"])
	assert.Empty(t, body["data"])
}

func TestSectorPerformanceValidation(t *testing.T) {
	s := newTestServer(t)

	t.Run("missing sectors", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/sectors/performance?start=2024-05-01&end=2024-05-03")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing dates", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/sectors/performance?sectors=1027")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed date", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/sectors/performance?sectors=1027&start=05/01/2024&end=2024-05-03")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("inverted window", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/sectors/performance?sectors=1027&start=2024-05-03&end=2024-05-01")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSectorPerformanceNoTradingDay(t *testing.T) {
	s := newTestServer(t)
	// End far outside the stub data range: every backtrack probe fails.
	rec := doRequest(t, s, http.MethodGet,
		"/api/sectors/performance?sectors=1027&start=2023-01-01&end=2023-01-31")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_trading_day", decodeBody(t, rec)["code"])
}

func TestMarketPerformance(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet,
		"/api/markets/KOSPI/performance?start=2024-05-01&end=2024-05-03&top=2")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "KOSPI", body["market"])

	top, ok := body["top_performers"].([]interface{})
	require.True(t, ok)
	require.Len(t, top, 2)

	best, ok := top[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "A", best["ticker"])
	assert.InDelta(t, 20.0, best["percent_change"], 1e-9)
}

func TestCompareInstruments(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet,
		"/api/instruments/compare?tickers=A,C&start=2024-05-01&end=2024-05-03")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	data, ok := body["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, 3)

	first, ok := data[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 100.0, first["A"])
	assert.Equal(t, 100.0, first["C"])
}

func TestSectorChart(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet,
		"/api/sectors/chart?sectors=1027,1021&start=2024-05-01&end=2024-05-03")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/markets/KOSPI/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
