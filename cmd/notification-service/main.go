package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Jansmig/magmamath/internal/api"
	"github.com/Jansmig/magmamath/internal/notification"
	"github.com/Jansmig/magmamath/pkg/config"
	"github.com/Jansmig/magmamath/pkg/logger"
	"github.com/Jansmig/magmamath/pkg/metrics"
	"github.com/Jansmig/magmamath/pkg/postgres"
	"github.com/Jansmig/magmamath/pkg/rabbitmq"
)

func main() {
	cfg := config.LoadForService("notification")
	logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "notification-service"}, os.Stdout)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().Msg("Starting notification-service...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]api.HealthCheck{}

	var notifier notification.Notifier = notification.LogNotifier{}
	if cfg.DatabaseURL != "" {
		// Connect to PostgreSQL
		db, err := postgres.Connect(ctx, cfg.DatabaseURL, 30, 2*time.Second)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer db.Close()

		// Run migrations
		if err := postgres.RunMigrations(ctx, db, "notification"); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		notifier = notification.NewJournal(db, notifier)
		checks["database"] = db.PingContext
	} else {
		log.Info().Msg("NOTIFICATION_DATABASE_URL not set, notification journal disabled")
	}

	// Connect to RabbitMQ
	rmqConn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, 30, 2*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
	}
	defer rmqConn.Close()
	checks["messaging"] = func(context.Context) error {
		if rmqConn.Conn.IsClosed() {
			return errors.New("disconnected")
		}
		return nil
	}

	m := metrics.New("notification_service")
	consumer := notification.NewConsumer(notifier)

	consumerCfg := rabbitmq.ConsumerConfig{
		Exchange:     cfg.Exchange,
		ExchangeType: cfg.ExchangeType,
		QueueName:    cfg.QueueName,
		DLQName:      cfg.DLQName,
		BindingKeys:  []string{cfg.RoutingKey},
		ConsumerName: "notification-service",
		Prefetch:     1,
		Recorder:     m,
	}

	done, err := rabbitmq.SetupConsumer(ctx, rmqConn, consumerCfg, consumer.HandleMessage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup consumer")
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewBaseRouter(api.RouterConfig{Metrics: m, HealthChecks: checks}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	log.Info().Msg("Consumer is running. Waiting for messages...")

	select {
	case <-ctx.Done():
	case <-done:
		log.Error().Msg("Consumer stopped unexpectedly")
	}

	log.Info().Msg("Shutting down...")
	stop()
	<-done

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
}
