// Package postgres opens the optional notification journal database.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Connect establishes a connection to PostgreSQL, retrying up to attempts
// times with delay between tries.
func Connect(ctx context.Context, databaseURL string, attempts int, delay time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for i := 0; i < attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			log.Info().Str("component", "Journal").Msg("Connected to PostgreSQL")
			return db, nil
		}

		log.Warn().Err(err).Str("component", "Journal").Dur("retry_in", delay).
			Msg("Failed to ping database, retrying")
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	_ = db.Close()
	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", attempts, err)
}
