// Package mongodb opens the MongoDB client used by the user service.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Connect creates a client for uri and pings the primary, retrying up to
// attempts times with delay between tries.
func Connect(ctx context.Context, uri string, attempts int, delay time.Duration) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("create mongo client: %w", err)
	}

	for i := 0; i < attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = client.Ping(pingCtx, readpref.Primary())
		cancel()
		if err == nil {
			log.Info().Str("component", "Database").Msg("Connected to MongoDB")
			return client, nil
		}
		log.Warn().Err(err).Str("component", "Database").Dur("retry_in", delay).
			Msg("MongoDB not ready, retrying")

		select {
		case <-ctx.Done():
			_ = client.Disconnect(context.Background())
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	_ = client.Disconnect(context.Background())
	return nil, fmt.Errorf("could not connect to MongoDB after %d attempts: %w", attempts, err)
}

// Disconnect closes client, logging any error.
func Disconnect(ctx context.Context, client *mongo.Client) {
	if err := client.Disconnect(ctx); err != nil {
		log.Error().Err(err).Str("component", "Database").Msg("Error disconnecting from MongoDB")
		return
	}
	log.Info().Str("component", "Database").Msg("Disconnected from MongoDB")
}
