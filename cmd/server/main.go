/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the savings ledger service. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from environment (.env honored in development)
  2. Initialize SQLite store
  3. Wire the savings service with policy, logger and metrics
  4. Configure HTTP router
  5. Start server with graceful shutdown

CONFIGURATION:
  PORT, DB_PATH, LOG_LEVEL, plus the policy overrides
  (MIN_MONTHLY_CONTRIBUTION, WITHDRAWAL_FEE_PERCENT,
  MAX_WITHDRAWALS_PER_MONTH, FINE_AMOUNT, MIN_DEPOSIT_AMOUNT,
  MIN_WITHDRAWAL_AMOUNT). See config/config.go for defaults.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Staillim/IQCapitalMaster-sub001/api"
	"github.com/Staillim/IQCapitalMaster-sub001/config"
	"github.com/Staillim/IQCapitalMaster-sub001/metrics"
	"github.com/Staillim/IQCapitalMaster-sub001/savings"
	"github.com/Staillim/IQCapitalMaster-sub001/store/sqlite"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	collector := metrics.NewCollector()
	service := savings.New(store, cfg.Policy(),
		savings.WithLogger(logger),
		savings.WithMetrics(collector),
	)

	handler := api.NewHandler(service)
	router := api.NewRouter(handler, collector.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "db", cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
