// Package main is the rebalancer HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/di"
	"github.com/aristath/rebalancer/internal/server"
	"github.com/aristath/rebalancer/pkg/logger"
)

// main is the entry point of the rebalancer server.
//
// Startup order:
// 1. Loads configuration from the environment (.env optional)
// 2. Initializes the logger
// 3. Wires the solver, portfolio service and scheduler
// 4. Starts the scheduler when a drift check is configured
// 5. Starts the HTTP server
// 6. Waits for a shutdown signal and shuts down gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("strategy", cfg.Rebalancer.Strategy).
		Float64("tolerance", cfg.Rebalancer.Tolerance).
		Msg("Starting rebalancer")

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	if jobs.DriftCheck != nil {
		container.Scheduler.Start()
		// Check once at startup so misconfigured files surface immediately
		if err := container.Scheduler.RunNow(jobs.DriftCheck); err != nil {
			log.Error().Err(err).Msg("Initial drift check failed")
		}
	}

	serverCfg := server.Config{
		Log:             log,
		Port:            cfg.Port,
		DevMode:         cfg.DevMode,
		Service:         container.Service,
		DefaultStrategy: cfg.Rebalancer.Strategy,
		Jobs:            container.Scheduler,
	}
	if jobs.DriftCheck != nil {
		serverCfg.DriftCheck = jobs.DriftCheck
	}
	srv := server.New(serverCfg)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	if jobs.DriftCheck != nil {
		container.Scheduler.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
