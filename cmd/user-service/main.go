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
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/Jansmig/magmamath/internal/api"
	"github.com/Jansmig/magmamath/internal/users"
	"github.com/Jansmig/magmamath/pkg/config"
	"github.com/Jansmig/magmamath/pkg/logger"
	"github.com/Jansmig/magmamath/pkg/metrics"
	"github.com/Jansmig/magmamath/pkg/mongodb"
	"github.com/Jansmig/magmamath/pkg/rabbitmq"

	_ "github.com/Jansmig/magmamath/docs"
)

// @title           magmamath User API
// @version         1.0
// @description     User CRUD on MongoDB. Creating and deleting a user publishes user.created and user.deleted events to RabbitMQ.
// @host            localhost:3000
// @BasePath        /
// @schemes         http
func main() {
	cfg := config.LoadForService("user")
	logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "user-service"}, os.Stdout)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().Msg("Starting user-service...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	mongoClient, err := mongodb.Connect(ctx, cfg.MongoURI, 30, 2*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongodb.Disconnect(context.Background(), mongoClient)

	repo := users.NewMongoRepository(mongoClient.Database(cfg.MongoDatabase))
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create indexes")
	}

	m := metrics.New("user_service")

	// Connect to RabbitMQ
	broker := rabbitmq.NewClient(rabbitmq.ClientConfig{
		URL:            cfg.RabbitMQURL,
		Exchange:       cfg.Exchange,
		ExchangeType:   cfg.ExchangeType,
		PublishTimeout: cfg.PublishTimeout,
	}, rabbitmq.WithRecorder(m))
	if err := broker.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
	}
	defer broker.Disconnect()

	svc := users.NewService(repo, broker, cfg.PageLimit)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.NewUserHandler(svc), api.RouterConfig{
		Metrics: m,
		HealthChecks: map[string]api.HealthCheck{
			"database": func(ctx context.Context) error {
				return mongoClient.Ping(ctx, readpref.Primary())
			},
			"messaging": func(context.Context) error {
				if s := broker.State(); s != rabbitmq.Connected {
					return errors.New(s.String())
				}
				return nil
			},
		},
	})

	// HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
