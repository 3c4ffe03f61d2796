package accounts

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository assumes the accounts table created by internal/migrations:
// unique index on lower(email), partial unique index on agent_id,
// and a phone_normalized column maintained on every write.

const accountColumns = `id, email, name, role, status, COALESCE(agent_id, ''), phone, created_at, updated_at`

func scanAccount(row *sql.Row) (Account, error) {
	var a Account
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.Name,
		&a.Role,
		&a.Status,
		&a.AgentID,
		&a.Phone,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func insertAccount(ctx context.Context, db *sql.DB, a Account) error {
	const q = `
INSERT INTO accounts (id, email, name, role, status, agent_id, phone, phone_normalized, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,$8,$9,$10)
`
	_, err := db.ExecContext(ctx, q,
		a.ID,
		a.Email,
		a.Name,
		a.Role,
		a.Status,
		a.AgentID,
		a.Phone,
		NormalizePhone(a.Phone),
		a.CreatedAt,
		a.UpdatedAt,
	)
	if isUniqueViolation(err, "accounts_email_key") {
		return ErrEmailTaken
	}
	if isUniqueViolation(err, "accounts_agent_id_key") {
		return ErrAgentTaken
	}
	return err
}

func findByID(ctx context.Context, db *sql.DB, id string) (Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(db.QueryRowContext(ctx, q, id))
}

func findByEmail(ctx context.Context, db *sql.DB, email string) (Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE email = lower(btrim($1))`
	return scanAccount(db.QueryRowContext(ctx, q, email))
}

func findByAgentID(ctx context.Context, db *sql.DB, agentID string) (Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE agent_id = $1`
	return scanAccount(db.QueryRowContext(ctx, q, agentID))
}

func findByPhoneExact(ctx context.Context, db *sql.DB, normalized string) (Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE phone_normalized = $1 LIMIT 1`
	return scanAccount(db.QueryRowContext(ctx, q, normalized))
}

func findByPhoneSuffix(ctx context.Context, db *sql.DB, suffix string) (Account, error) {
	// Strip any retained "+" before suffix comparison on the stored side too.
	const q = `
SELECT ` + accountColumns + `
FROM accounts
WHERE RIGHT(REPLACE(phone_normalized, '+', ''), 10) = $1
  AND LENGTH(REPLACE(phone_normalized, '+', '')) >= 10
LIMIT 1
`
	return scanAccount(db.QueryRowContext(ctx, q, suffix))
}

func updateAgentID(ctx context.Context, db *sql.DB, id, agentID string) (Account, error) {
	const q = `
UPDATE accounts
SET agent_id = NULLIF($2, ''), updated_at = now()
WHERE id = $1
RETURNING ` + accountColumns
	a, err := scanAccount(db.QueryRowContext(ctx, q, id, agentID))
	if isUniqueViolation(err, "accounts_agent_id_key") {
		return Account{}, ErrAgentTaken
	}
	return a, err
}

func updateStatus(ctx context.Context, db *sql.DB, id string, status Status) (Account, error) {
	const q = `
UPDATE accounts
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + accountColumns
	return scanAccount(db.QueryRowContext(ctx, q, id, status))
}

func updatePhone(ctx context.Context, db *sql.DB, id, phone string) (Account, error) {
	const q = `
UPDATE accounts
SET phone = $2, phone_normalized = $3, updated_at = now()
WHERE id = $1
RETURNING ` + accountColumns
	return scanAccount(db.QueryRowContext(ctx, q, id, phone, NormalizePhone(phone)))
}

func listAccounts(ctx context.Context, db *sql.DB, limit, offset int) ([]Account, error) {
	const q = `
SELECT ` + accountColumns + `
FROM accounts
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`
	rows, err := db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(
			&a.ID,
			&a.Email,
			&a.Name,
			&a.Role,
			&a.Status,
			&a.AgentID,
			&a.Phone,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
