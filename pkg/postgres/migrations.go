package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// RunMigrations creates the tables of service. Statements are idempotent.
func RunMigrations(ctx context.Context, db *sql.DB, service string) error {
	migrations, err := serviceMigrations(service)
	if err != nil {
		return err
	}
	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration %d for %s: %w", i+1, service, err)
		}
	}
	log.Info().Str("component", "Journal").Str("service", service).Msg("Migrations completed")
	return nil
}

func serviceMigrations(service string) ([]string, error) {
	switch service {
	case "notification":
		return []string{
			`CREATE TABLE IF NOT EXISTS notification_log (
				event_id VARCHAR(36) PRIMARY KEY,
				correlation_id VARCHAR(64),
				event_type VARCHAR(50) NOT NULL,
				kind VARCHAR(20) NOT NULL,
				user_id VARCHAR(24) NOT NULL,
				user_email VARCHAR(255),
				user_name VARCHAR(255),
				sent_at TIMESTAMP NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE IF NOT EXISTS notification_stats (
				stat_date DATE NOT NULL,
				kind VARCHAR(20) NOT NULL,
				count INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (stat_date, kind)
			)`,
		}, nil
	default:
		return nil, fmt.Errorf("no migrations for service %q", service)
	}
}
