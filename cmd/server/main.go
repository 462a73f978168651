// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/archpointlabs/milo/internal/config"
	"github.com/archpointlabs/milo/internal/scheduler"
	"github.com/archpointlabs/milo/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger := services.NewLogger("milo", cfg.Environment, cfg.LogLevel)

	app, err := InitializeApplication(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	var digestScheduler *scheduler.Scheduler
	if cfg.DigestCron != "" {
		digestScheduler, err = scheduler.New(cfg.DigestCron, cfg.Location(), app.Aggregator, logger)
		if err != nil {
			logger.Error("Failed to schedule digest", "error", err)
			os.Exit(1)
		}
		digestScheduler.Start()
		logger.Info("Digest scheduled", "cron", cfg.DigestCron, "timezone", cfg.Location().String())
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		// Completions can take the full chat timeout.
		WriteTimeout: cfg.ChatTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Server starting",
		"port", cfg.ServerPort,
		"env", cfg.Environment,
		"llm_provider", app.Provider.Name(),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server startup failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down server gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if digestScheduler != nil {
		if err := digestScheduler.Stop(ctx); err != nil {
			logger.Warn("Digest run still in progress at shutdown", "error", err)
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}

	if app.Limiter != nil {
		app.Limiter.Close()
	}

	// Let in-flight conversation writes settle before closing the pool.
	app.Recorder.Wait()

	if closer, ok := app.Provider.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("Failed to close completion provider", "error", err)
		}
	}
	if sqlDB, err := app.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("Server stopped gracefully")
}
