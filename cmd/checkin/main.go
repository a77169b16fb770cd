package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/checkin-geofence-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/checkin-geofence-service/internal/adapter/kafka"
	"github.com/couchcryptid/checkin-geofence-service/internal/checkin"
	"github.com/couchcryptid/checkin-geofence-service/internal/config"
	"github.com/couchcryptid/checkin-geofence-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if cfg.UsesDefaultSecret() {
		logger.Warn("TOKEN_SECRET is not set; using the insecure default secret")
	}

	// Decision events are feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher checkin.DecisionPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		metrics.PublisherEnabled.Set(1)
		logger.Info("decision events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaDecisionTopic)
	} else {
		logger.Info("decision events disabled")
	}

	svc := checkin.New(checkin.Settings{
		Secret:       []byte(cfg.TokenSecret),
		RadiusMeters: cfg.RadiusMeters,
		Sites:        cfg.Sites,
	}, clockwork.NewRealClock(), publisher, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, cfg.MaxBodyBytes, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	logger.Info("checkin validator ready", "sites", len(cfg.Sites), "radius_m", cfg.RadiusMeters)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
