package payments

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrEventProcessed is returned when the payment event was already recorded.
// Redeliveries and concurrent deliveries of one event both land here.
var ErrEventProcessed = errors.New("payment event already processed")

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertEvent(ctx context.Context, db execer, ev Event) error {
	const q = `
INSERT INTO payment_events (event_id, session_id, account_id, amount_cents, currency, credits, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
	_, err := db.ExecContext(ctx, q,
		ev.EventID,
		ev.SessionID,
		ev.AccountID,
		ev.AmountCents,
		ev.Currency,
		ev.Credits,
		ev.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEventProcessed
		}
		return err
	}
	return nil
}

func listEventsByAccount(ctx context.Context, db *sql.DB, accountID string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const q = `
SELECT event_id, session_id, account_id, amount_cents, currency, credits, created_at
FROM payment_events
WHERE account_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := db.QueryContext(ctx, q, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.EventID, &ev.SessionID, &ev.AccountID, &ev.AmountCents, &ev.Currency, &ev.Credits, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
