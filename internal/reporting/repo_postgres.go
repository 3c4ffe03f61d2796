package reporting

import (
	"context"
	"database/sql"
	"time"

	"voicecredit-platform/internal/calls"
	"voicecredit-platform/internal/payments"
)

// PostgresRepo reads reporting rows straight from the immutable tables.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) ListCalls(ctx context.Context, accountID string, from, to time.Time) ([]calls.Record, error) {
	const q = `
SELECT call_id, account_id, duration_seconds, duration_minutes, status, created_at
FROM call_records
WHERE account_id = $1 AND created_at >= $2 AND created_at < $3
`
	rows, err := r.db.QueryContext(ctx, q, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []calls.Record
	for rows.Next() {
		var rec calls.Record
		if err := rows.Scan(&rec.CallID, &rec.AccountID, &rec.DurationSeconds, &rec.DurationMinutes, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListPayments(ctx context.Context, accountID string, from, to time.Time) ([]payments.Event, error) {
	const q = `
SELECT event_id, session_id, account_id, amount_cents, currency, credits, created_at
FROM payment_events
WHERE account_id = $1 AND created_at >= $2 AND created_at < $3
`
	rows, err := r.db.QueryContext(ctx, q, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payments.Event
	for rows.Next() {
		var ev payments.Event
		if err := rows.Scan(&ev.EventID, &ev.SessionID, &ev.AccountID, &ev.AmountCents, &ev.Currency, &ev.Credits, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
