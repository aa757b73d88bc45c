package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobmcallan/strata/internal/clients/krx"
	"github.com/bobmcallan/strata/internal/common"
	"github.com/bobmcallan/strata/internal/server"
	"github.com/bobmcallan/strata/internal/services/market"
)

func main() {
	configPath := os.Getenv("STRATA_CONFIG")

	config, err := common.LoadConfig(configPath, "strata.toml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLogger(config.Logging.Level)
	common.PrintBanner(config, logger)

	provider := krx.NewClient(config.Clients.KRX.APIKey,
		krx.WithBaseURL(config.Clients.KRX.BaseURL),
		krx.WithRateLimit(config.Clients.KRX.RateLimit),
		krx.WithTimeout(config.Clients.KRX.GetTimeout()),
		krx.WithLogger(logger),
	)

	svc := market.NewService(provider, config.Analysis, logger)
	srv := server.NewServer(config, svc, logger)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", config.Server.Port)).
		Msg("Server ready")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	common.PrintShutdownBanner()
	logger.Info().Msg("Server stopped")
}
