// Package krx provides a client for the KRX market data API
package krx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/strata/internal/common"
	"github.com/bobmcallan/strata/internal/interfaces"
	"github.com/bobmcallan/strata/internal/models"
)

const (
	DefaultBaseURL   = "https://data.krx.co.kr/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements the MarketDataProvider interface
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

var _ interfaces.MarketDataProvider = (*Client)(nil)

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new KRX data client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("KRX API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Unwrap maps throttling and absence statuses onto the shared provider sentinels.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return interfaces.ErrNotFound
	case http.StatusTooManyRequests:
		return interfaces.ErrRateLimited
	}
	return nil
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("auth_key", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("KRX API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", path, interfaces.ErrTimeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return fmt.Errorf("%s: %w", path, interfaces.ErrTimeout)
		}
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// ResolveName returns the display name of an index or equity ticker.
func (c *Client) ResolveName(ctx context.Context, ticker string) (string, error) {
	params := url.Values{}
	params.Set("ticker", ticker)

	var resp nameResponse
	if err := c.get(ctx, "/instrument/name", params, &resp); err != nil {
		return "", err
	}
	if resp.Name == "" {
		return "", fmt.Errorf("instrument %s: %w", ticker, interfaces.ErrNotFound)
	}
	return resp.Name, nil
}

// HasDataOn reports whether the index has constituent data on the date.
// Probe semantics: absence and transport errors both report false.
func (c *Client) HasDataOn(ctx context.Context, indexTicker string, date time.Time) bool {
	constituents, err := c.FetchConstituents(ctx, indexTicker, date)
	return err == nil && len(constituents) > 0
}

// FetchConstituents returns the index's underlying tickers as of the date.
func (c *Client) FetchConstituents(ctx context.Context, indexTicker string, date time.Time) ([]string, error) {
	params := url.Values{}
	params.Set("ticker", indexTicker)
	params.Set("date", models.DateKey(date))

	var resp constituentsResponse
	if err := c.get(ctx, "/index/constituents", params, &resp); err != nil {
		return nil, err
	}
	return resp.Constituents, nil
}

// FetchPriceSeries returns the closing-price series for a ticker over [from, to].
func (c *Client) FetchPriceSeries(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error) {
	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("from", models.DateKey(from))
	params.Set("to", models.DateKey(to))

	var resp ohlcvResponse
	if err := c.get(ctx, "/market/ohlcv", params, &resp); err != nil {
		return nil, err
	}

	series := make(models.PriceSeries, 0, len(resp.Data))
	for _, bar := range resp.Data {
		d, err := time.Parse(models.DateFormat, bar.Date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", bar.Date, err)
		}
		series = append(series, models.PricePoint{Date: d, Close: float64(bar.Close)})
	}

	// Vendor bars arrive ragged: enforce ascending unique dates and
	// positive closes at the adapter boundary.
	return series.Normalize(), nil
}

// ListUniverse returns every listed instrument for a market.
func (c *Client) ListUniverse(ctx context.Context, market string) ([]models.Instrument, error) {
	params := url.Values{}
	params.Set("market", market)

	var resp listingResponse
	if err := c.get(ctx, "/market/listing", params, &resp); err != nil {
		return nil, err
	}

	instruments := make([]models.Instrument, 0, len(resp.Instruments))
	for _, row := range resp.Instruments {
		instruments = append(instruments, models.Instrument{Ticker: row.Ticker, Name: row.Name})
	}
	return instruments, nil
}

// ListIndices returns every index ticker known for a market.
func (c *Client) ListIndices(ctx context.Context, market string) ([]string, error) {
	params := url.Values{}
	params.Set("market", market)

	var resp indexListResponse
	if err := c.get(ctx, "/index/list", params, &resp); err != nil {
		return nil, err
	}
	return resp.Tickers, nil
}
