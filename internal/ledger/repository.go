package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// All balance mutations are single-statement atomic upserts. Concurrent
// debits for one busy account must not lose updates, so no read-modify-write
// happens in application code.

// querier is satisfied by *sql.DB and *sql.Tx, so mutations can join a
// caller's transaction (purchase crediting pairs the grant with the payment
// event insert).
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const ledgerColumns = `account_id, total_credits, used_credits, status, created_at, updated_at`

func scanLedger(row *sql.Row) (Ledger, error) {
	var l Ledger
	err := row.Scan(
		&l.AccountID,
		&l.TotalCredits,
		&l.UsedCredits,
		&l.Status,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Ledger{}, ErrNotFound
		}
		return Ledger{}, err
	}
	return l, nil
}

func getLedger(ctx context.Context, db querier, accountID string) (Ledger, error) {
	const q = `SELECT ` + ledgerColumns + ` FROM usage_ledgers WHERE account_id = $1`
	return scanLedger(db.QueryRowContext(ctx, q, accountID))
}

// ensureLedger creates the zero-balance row if absent and returns the row
// either way.
func ensureLedger(ctx context.Context, db querier, accountID string, now time.Time) (Ledger, error) {
	const q = `
INSERT INTO usage_ledgers (account_id, total_credits, used_credits, status, created_at, updated_at)
VALUES ($1, 0, 0, 'active', $2, $2)
ON CONFLICT (account_id) DO UPDATE SET account_id = usage_ledgers.account_id
RETURNING ` + ledgerColumns
	return scanLedger(db.QueryRowContext(ctx, q, accountID, now))
}

// addUsed atomically increments used_credits, creating the ledger with zero
// total first when it does not exist yet. A brand-new account can therefore
// accrue usage debt; exhaustion is signalled, not rejected.
func addUsed(ctx context.Context, db querier, accountID string, credits int64, now time.Time) (Ledger, error) {
	const q = `
INSERT INTO usage_ledgers (account_id, total_credits, used_credits, status, created_at, updated_at)
VALUES ($1, 0, $2, 'active', $3, $3)
ON CONFLICT (account_id)
DO UPDATE SET used_credits = usage_ledgers.used_credits + EXCLUDED.used_credits,
              updated_at = EXCLUDED.updated_at
RETURNING ` + ledgerColumns
	return scanLedger(db.QueryRowContext(ctx, q, accountID, credits, now))
}

// addTotal atomically increments total_credits (purchase or admin grant).
func addTotal(ctx context.Context, db querier, accountID string, credits int64, now time.Time) (Ledger, error) {
	const q = `
INSERT INTO usage_ledgers (account_id, total_credits, used_credits, status, created_at, updated_at)
VALUES ($1, $2, 0, 'active', $3, $3)
ON CONFLICT (account_id)
DO UPDATE SET total_credits = usage_ledgers.total_credits + EXCLUDED.total_credits,
              updated_at = EXCLUDED.updated_at
RETURNING ` + ledgerColumns
	return scanLedger(db.QueryRowContext(ctx, q, accountID, credits, now))
}

// setTotal overwrites total_credits (explicit plan change, including
// downgrade). used_credits is deliberately untouched.
func setTotal(ctx context.Context, db querier, accountID string, credits int64, now time.Time) (Ledger, error) {
	const q = `
INSERT INTO usage_ledgers (account_id, total_credits, used_credits, status, created_at, updated_at)
VALUES ($1, $2, 0, 'active', $3, $3)
ON CONFLICT (account_id)
DO UPDATE SET total_credits = EXCLUDED.total_credits,
              updated_at = EXCLUDED.updated_at
RETURNING ` + ledgerColumns
	return scanLedger(db.QueryRowContext(ctx, q, accountID, credits, now))
}

func setStatus(ctx context.Context, db querier, accountID string, status Status, now time.Time) (Ledger, error) {
	const q = `
UPDATE usage_ledgers
SET status = $2, updated_at = $3
WHERE account_id = $1
RETURNING ` + ledgerColumns
	return scanLedger(db.QueryRowContext(ctx, q, accountID, status, now))
}
