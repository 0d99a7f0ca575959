// Command hydroseriesd consumes raw sensor reading batches from Kafka,
// regularizes them onto a fixed-frequency grid, and produces the result to a
// sink topic. When a weather history is configured it also serves drought
// index values over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/hydroseries/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hydroseries/internal/adapter/kafka"
	"github.com/couchcryptid/hydroseries/internal/adapter/modelstore"
	"github.com/couchcryptid/hydroseries/internal/config"
	"github.com/couchcryptid/hydroseries/internal/observability"
	"github.com/couchcryptid/hydroseries/internal/pipeline"

	"github.com/couchcryptid/hydroseries/dataset"
	"github.com/couchcryptid/hydroseries/drought"
	"github.com/couchcryptid/hydroseries/timeseries"
)

func main() {
	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	regularizer, err := timeseries.NewRegularizer(cfg.RegularizerConfig(), logger)
	if err != nil {
		logger.Error("failed to build regularizer", "error", err)
		os.Exit(1)
	}

	index, err := setupDroughtIndex(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to set up drought index", "error", err)
		os.Exit(1)
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(regularizer, cfg.Frequency, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, index, logger, metrics)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// setupDroughtIndex builds the drought transformer when the endpoint is
// enabled: restore a stored model if one exists, otherwise fit from the
// configured history file and persist the result.
func setupDroughtIndex(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (httpadapter.IndexTransformer, error) {
	if !cfg.DroughtEnabled {
		logger.Info("drought index endpoint disabled")
		return nil, nil
	}

	transformer, err := drought.New(cfg.DroughtConfig(), logger)
	if err != nil {
		return nil, err
	}

	var store modelstore.Store
	if cfg.RedisAddr != "" {
		redisStore, err := modelstore.NewRedisStore(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		store = redisStore
		logger.Info("using redis model store", "addr", cfg.RedisAddr)
	} else {
		store = modelstore.NewMemoryStore()
	}

	model, err := store.Load(ctx, transformer.Name())
	switch {
	case err == nil:
		if err := transformer.Restore(model); err != nil {
			return nil, err
		}
		logger.Info("restored drought model", "name", transformer.Name(), "fitted_at", model.FittedAt)
	case errors.Is(err, modelstore.ErrNotFound):
		if cfg.HistoryPath == "" {
			return nil, fmt.Errorf("no stored model %s and no HISTORY_PATH to fit from", transformer.Name())
		}
		if err := fitFromHistory(transformer, cfg.HistoryPath); err != nil {
			return nil, err
		}
		if err := store.Save(ctx, transformer.Model()); err != nil {
			return nil, err
		}
		logger.Info("fitted drought model from history",
			"name", transformer.Name(), "history", cfg.HistoryPath)
	default:
		return nil, err
	}

	metrics.DroughtConfigured.Set(1)
	return transformer, nil
}

func fitFromHistory(transformer *drought.Transformer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	obs, err := dataset.ReadObservations(f)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	return transformer.Configure(obs)
}
