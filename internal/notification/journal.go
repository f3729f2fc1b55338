package notification

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Jansmig/magmamath/pkg/logger"
)

// Journal records every sent notification in PostgreSQL and skips events it
// has already handled, so redelivered messages are not sent twice.
type Journal struct {
	DB   *sql.DB
	Next Notifier
}

// NewJournal wraps next with a journal stored in db.
func NewJournal(db *sql.DB, next Notifier) *Journal {
	return &Journal{DB: db, Next: next}
}

func (j *Journal) Notify(ctx context.Context, n Notification) error {
	l := logger.Ctx(ctx).With().Str("component", "Journal").Str("event_id", n.EventID).Logger()

	// Idempotency check
	var exists bool
	err := j.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM notification_log WHERE event_id = $1)", n.EventID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check notification log: %w", err)
	}
	if exists {
		l.Info().Msg("Duplicate event ignored")
		return nil
	}

	if err := j.Next.Notify(ctx, n); err != nil {
		return err
	}

	tx, err := j.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO notification_log (event_id, correlation_id, event_type, kind, user_id, user_email, user_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (event_id) DO NOTHING`,
		n.EventID, n.CorrelationID, n.EventType, string(n.Kind), n.UserID, n.Email, n.Name,
	)
	if err != nil {
		return fmt.Errorf("write notification log: %w", err)
	}

	if inserted, _ := res.RowsAffected(); inserted > 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO notification_stats (stat_date, kind, count)
			 VALUES (CURRENT_DATE, $1, 1)
			 ON CONFLICT (stat_date, kind) DO UPDATE SET count = notification_stats.count + 1`,
			string(n.Kind),
		)
		if err != nil {
			return fmt.Errorf("update notification stats: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal: %w", err)
	}
	l.Debug().Msg("Notification journaled")
	return nil
}
