// Command sync runs one catalog reconciliation: it discovers the monthly
// CHMI metadata extracts under DATA_DIR, folds them into a cumulative station
// catalog, writes the processed catalog files, and synchronizes the result
// into Postgres.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	fileadapter "github.com/mhornych/chmi-station-catalog/internal/adapter/file"
	httpadapter "github.com/mhornych/chmi-station-catalog/internal/adapter/http"
	kafkaadapter "github.com/mhornych/chmi-station-catalog/internal/adapter/kafka"
	"github.com/mhornych/chmi-station-catalog/internal/adapter/postgres"
	"github.com/mhornych/chmi-station-catalog/internal/config"
	"github.com/mhornych/chmi-station-catalog/internal/observability"
	"github.com/mhornych/chmi-station-catalog/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithTimeout(ctx, cfg.SyncTimeout)
	defer cancel()

	store, err := postgres.New(runCtx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("store connection failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.EnsureSchema(runCtx); err != nil {
		logger.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	// Creation-event feed (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var events pipeline.EventSink
	if cfg.KafkaEnabled {
		publisher := kafkaadapter.NewPublisher(cfg, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		events = publisher
		logger.Info("creation-event feed enabled", "topic", cfg.KafkaEventsTopic)
	} else {
		logger.Info("creation-event feed disabled")
	}

	source := fileadapter.NewSource(cfg.DataDir, logger)
	output := fileadapter.NewOutput(cfg.DataDir, cfg.OutputDir, logger)
	syncer := pipeline.NewSyncer(store, events, logger, metrics)

	p := pipeline.New(source, output, syncer, logger, metrics)

	// Operational endpoints are optional for a batch run; enable them when an
	// orchestrator wants to scrape metrics or probe the process.
	var srv *httpadapter.Server
	if cfg.MetricsAddr != "" {
		srv = httpadapter.NewServer(cfg.MetricsAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	report, err := p.Run(runCtx)

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if err != nil {
		logger.Error("reconciliation failed", "error", err)
		os.Exit(1)
	}
	logger.Info("reconciliation finished",
		"stations_created", report.StationsCreated,
		"created_total", report.TotalCreated())
}
