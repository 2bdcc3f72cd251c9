// Package main provides the entry point for the literature search HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helixir/literature-search-service/internal/aggregator"
	"github.com/helixir/literature-search-service/internal/config"
	"github.com/helixir/literature-search-service/internal/events"
	"github.com/helixir/literature-search-service/internal/observability"
	"github.com/helixir/literature-search-service/internal/papersources"
	"github.com/helixir/literature-search-service/internal/papersources/catalog"
	httpserver "github.com/helixir/literature-search-service/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Service:    "literature-search-service",
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = observability.WithComponent(logger, "server")
	logger.Info().Msg("starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policy, err := aggregator.ParseFailurePolicy(cfg.Aggregation.FailurePolicy)
	if err != nil {
		return fmt.Errorf("parse failure policy: %w", err)
	}

	var (
		metrics  *observability.Metrics
		observer papersources.RequestObserver
	)
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
		observer = metrics
	}

	// Engines and their rate-limited clients.
	registry := catalog.NewRegistry(cfg.PaperSources)
	fetchers := catalog.NewFetchers(registry, cfg.PaperSources, observer)
	defaultFetcher := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:   "default",
		Timeout:  cfg.Aggregation.RequestTimeout,
		Observer: observer,
	})

	opts := []aggregator.Option{
		aggregator.WithLogger(logger),
		aggregator.WithMetrics(metrics),
		aggregator.WithFetchers(fetchers),
	}

	if cfg.Events.Enabled {
		publisher, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:      cfg.Events.Brokers,
			Topic:        cfg.Events.Topic,
			BatchTimeout: cfg.Events.BatchTimeout,
			WriteTimeout: cfg.Events.WriteTimeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("create event publisher: %w", err)
		}
		defer func() {
			if closeErr := publisher.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close event publisher")
			}
		}()
		opts = append(opts, aggregator.WithPublisher(publisher))
		logger.Info().
			Strs("brokers", cfg.Events.Brokers).
			Str("topic", cfg.Events.Topic).
			Msg("search events enabled")
	}

	agg := aggregator.New(registry, defaultFetcher, aggregator.Config{
		FailurePolicy:  policy,
		APIKeys:        cfg.PaperSources.APIKeys(),
		PublishTimeout: cfg.Events.WriteTimeout,
	}, opts...)

	engineNames := make([]string, 0, len(agg.Engines()))
	for _, e := range agg.Engines() {
		engineNames = append(engineNames, string(e))
	}
	logger.Info().
		Strs("engines", engineNames).
		Str("failure_policy", string(policy)).
		Msg("aggregator configured")

	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RequestTimeout:  cfg.Aggregation.RequestTimeout,
		DefaultRows:     cfg.Aggregation.DefaultRows,
	}
	httpSrv := httpserver.NewServer(httpCfg, agg, metrics, logger)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().Str("http_address", httpCfg.Address)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("literature-search-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down literature-search-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Let in-flight events finish before the deferred publisher close.
	agg.Wait()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("literature-search-service stopped")
	return nil
}
