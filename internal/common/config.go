// Package common provides shared utilities for Strata
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Strata
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Clients     ClientsConfig  `toml:"clients"`
	Analysis    AnalysisConfig `toml:"analysis"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	KRX KRXConfig `toml:"krx"`
}

// KRXConfig holds KRX market data API configuration
type KRXConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"` // requests per second
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *KRXConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// AnalysisConfig holds tunables for the aggregation engine
type AnalysisConfig struct {
	Workers          int               `toml:"workers"`            // fetch worker pool size
	FetchTimeout     string            `toml:"fetch_timeout"`      // per-ticker fetch deadline
	PacingDelay      string            `toml:"pacing_delay"`       // delay between sequential constituent calls
	MaxBacktrackDays int               `toml:"max_backtrack_days"` // trading-day resolution bound
	ReferenceTickers map[string]string `toml:"reference_tickers"`  // market -> canonical calendar instrument
}

// GetFetchTimeout parses and returns the per-fetch deadline
func (c *AnalysisConfig) GetFetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// GetPacingDelay parses and returns the inter-call pacing delay
func (c *AnalysisConfig) GetPacingDelay() time.Duration {
	d, err := time.ParseDuration(c.PacingDelay)
	if err != nil {
		return 100 * time.Millisecond
	}
	return d
}

// ReferenceTicker returns the configured calendar reference instrument for a market.
func (c *AnalysisConfig) ReferenceTicker(market string) string {
	return c.ReferenceTickers[strings.ToUpper(market)]
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Clients: ClientsConfig{
			KRX: KRXConfig{
				BaseURL:   "https://data.krx.co.kr/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
		},
		Analysis: AnalysisConfig{
			Workers:          8,
			FetchTimeout:     "15s",
			PacingDelay:      "100ms",
			MaxBacktrackDays: 7,
			ReferenceTickers: map[string]string{
				"KOSPI":  "005930",
				"KOSDAQ": "247540",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STRATA_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("STRATA_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("STRATA_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("STRATA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if url := os.Getenv("STRATA_KRX_BASE_URL"); url != "" {
		config.Clients.KRX.BaseURL = url
	}

	if key := os.Getenv("STRATA_KRX_API_KEY"); key != "" {
		config.Clients.KRX.APIKey = key
	}

	if workers := os.Getenv("STRATA_ANALYSIS_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			config.Analysis.Workers = w
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
