package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/app"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/slotwise/pkg/config"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger := observability.LoggerFromSettings(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, cfg.Version).
		With("component", "worker")
	logger.Info("starting slotwise worker")

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	consumer, err := newConsumer(cfg, logger)
	if err != nil {
		logger.Error("failed to create event consumer", "error", err)
		os.Exit(1)
	}
	if consumer != nil {
		consumer.RegisterConsumer(container.InvalidationSubscriber)
		defer consumer.Close()
	}

	processor := container.OutboxProcessor
	logger.Info("starting outbox processor",
		"poll_interval", cfg.OutboxPollInterval,
		"batch_size", cfg.OutboxBatchSize,
		"max_retries", cfg.OutboxMaxRetries,
	)
	if err := processor.Start(ctx); err != nil {
		logger.Error("failed to start outbox processor", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	if consumer != nil {
		g.Go(func() error {
			if err := consumer.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("event consumer: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		warmup(gctx, container, logger)
		return nil
	})

	g.Go(func() error {
		every(gctx, cfg.OutboxCleanupInterval, func() {
			deleted, err := processor.Cleanup(gctx)
			if err != nil {
				logger.Error("outbox cleanup failed", "error", err)
				return
			}
			if deleted > 0 {
				logger.Info("outbox cleanup completed", "deleted", deleted, "retention_days", cfg.OutboxRetentionDays)
			}
		})
		return nil
	})

	g.Go(func() error {
		every(gctx, cfg.OutboxStatsInterval, func() {
			stats := processor.GetStats()
			logger.Info("outbox stats",
				"running", stats.IsRunning,
				"published", stats.PublishedCount,
				"failed", stats.FailedCount,
				"dead", stats.DeadCount,
				"lag_seconds", stats.LagSeconds,
				"oldest_message_at", stats.OldestMessageAt,
				"last_processed_at", stats.LastProcessedAt,
				"last_error_at", stats.LastErrorAt,
				"last_error", stats.LastError,
			)
		})
		return nil
	})

	if cfg.WorkerHealthAddr != "" {
		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           healthMux(container),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("health server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := app.ShutdownContext()
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
			return nil
		})
	}

	err = g.Wait()
	logger.Info("shutting down worker")
	processor.Stop()
	if err != nil {
		logger.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

// newConsumer connects the broker consumer that feeds snapshot invalidation.
// The in-process bus dispatches inside the publishing process and needs none.
func newConsumer(cfg *config.Config, logger *slog.Logger) (eventbus.Consumer, error) {
	switch cfg.EventBroker {
	case config.BrokerRabbitMQ:
		return eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConfig{
			URL:    cfg.RabbitMQURL,
			Logger: logger,
		}, eventbus.NewConsumerRegistry(logger))
	case config.BrokerKafka:
		return eventbus.NewKafkaConsumer(eventbus.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			Logger:  logger,
		}, eventbus.NewConsumerRegistry(logger))
	default:
		logger.Info("no broker consumer configured", "broker", cfg.EventBroker)
		return nil, nil
	}
}

// warmup refreshes today's snapshots at start and then every WarmupInterval.
func warmup(ctx context.Context, c *app.Container, logger *slog.Logger) {
	refresh := func() {
		result, err := c.Refresher.Refresh(ctx, c.Today(), "")
		if err != nil {
			logger.Error("snapshot warm-up failed", "error", err)
			return
		}
		logger.Info("snapshot warm-up completed",
			"date", result.Date.String(),
			"refreshed", result.Refreshed,
			"failed", result.Failed,
			"duration", result.Duration,
		)
	}
	refresh()
	every(ctx, c.Config.WarmupInterval, refresh)
}

// every calls fn on each tick until ctx is done. A non-positive interval
// disables the loop.
func every(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func healthMux(c *app.Container) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := c.OutboxProcessor.GetStats()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":            "ok",
			"running":           stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"last_processed_at": stats.LastProcessedAt,
			"last_error_at":     stats.LastErrorAt,
			"last_error":        stats.LastError,
		})
	})
	mux.Handle("/readyz", c.Health.Handler())
	if c.Prometheus != nil {
		mux.Handle("/metrics", c.Prometheus.Handler())
	}
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
