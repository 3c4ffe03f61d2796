package calls

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("call record not found")

	// ErrDuplicateCall is returned when a record with the same call id
	// already exists. Under concurrent delivery of one call id exactly one
	// insert succeeds; every loser sees this error and must treat it the
	// same as a pre-check hit.
	ErrDuplicateCall = errors.New("call already recorded")
)

// Repository is the append-only store for call records.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const recordColumns = `call_id, account_id, phone, duration_seconds, duration_minutes, transcript, summary, event_type, metadata, status, started_at, ended_at, created_at`

// Exists is the cheap pre-check of the duplicate guard. The authoritative
// guard remains the unique constraint checked in Insert.
func (r *Repository) Exists(ctx context.Context, callID string) (bool, error) {
	const q = `SELECT 1 FROM call_records WHERE call_id = $1`
	var one int
	err := r.db.QueryRowContext(ctx, q, callID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Insert creates the record. A unique violation on call_id maps to
// ErrDuplicateCall; any other database fault is surfaced as-is.
func (r *Repository) Insert(ctx context.Context, rec Record) error {
	const q = `
INSERT INTO call_records (
  call_id, account_id, phone, duration_seconds, duration_minutes,
  transcript, summary, event_type, metadata, status, started_at, ended_at, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
)
`
	_, err := r.db.ExecContext(ctx, q,
		rec.CallID,
		rec.AccountID,
		rec.Phone,
		rec.DurationSeconds,
		rec.DurationMinutes,
		rec.Transcript,
		rec.Summary,
		rec.EventType,
		nullIfEmpty(rec.Metadata),
		rec.Status,
		nullIfZeroTime(rec.StartedAt),
		nullIfZeroTime(rec.EndedAt),
		rec.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateCall
		}
		return err
	}
	return nil
}

func (r *Repository) GetByCallID(ctx context.Context, callID string) (Record, error) {
	const q = `SELECT ` + recordColumns + ` FROM call_records WHERE call_id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, callID))
}

// ListByAccount returns records for the dashboard, newest first.
func (r *Repository) ListByAccount(ctx context.Context, accountID string, from, to time.Time, limit int) ([]Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `
SELECT ` + recordColumns + `
FROM call_records
WHERE account_id = $1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at DESC
LIMIT $4
`
	rows, err := r.db.QueryContext(ctx, q, accountID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repository) scanOne(row *sql.Row) (Record, error) {
	var rec Record
	var metadata sql.NullString
	var started, ended sql.NullTime
	err := row.Scan(
		&rec.CallID,
		&rec.AccountID,
		&rec.Phone,
		&rec.DurationSeconds,
		&rec.DurationMinutes,
		&rec.Transcript,
		&rec.Summary,
		&rec.EventType,
		&metadata,
		&rec.Status,
		&started,
		&ended,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	rec.Metadata = metadata.String
	rec.StartedAt = started.Time
	rec.EndedAt = ended.Time
	return rec, nil
}

func scanRow(rows *sql.Rows) (Record, error) {
	var rec Record
	var metadata sql.NullString
	var started, ended sql.NullTime
	err := rows.Scan(
		&rec.CallID,
		&rec.AccountID,
		&rec.Phone,
		&rec.DurationSeconds,
		&rec.DurationMinutes,
		&rec.Transcript,
		&rec.Summary,
		&rec.EventType,
		&metadata,
		&rec.Status,
		&started,
		&ended,
		&rec.CreatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	rec.Metadata = metadata.String
	rec.StartedAt = started.Time
	rec.EndedAt = ended.Time
	return rec, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZeroTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
