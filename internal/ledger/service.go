package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("ledger not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Service is the only writer of used_credits.
//
// Debit contract:
// - credits = whole minutes, already rounded up by the caller
// - the increment is atomic in the store; concurrent debits for the same
//   account must all land
// - a missing ledger row is created with zero total first, so the debit
//   itself never fails for lack of funds — exhaustion surfaces through the
//   stop_workflow flag instead
type Service struct {
	db    *sql.DB
	clock func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, clock: time.Now}
}

// GetBalance returns the snapshot for an account, lazily creating the ledger
// on first reference.
func (s *Service) GetBalance(ctx context.Context, accountID string) (Balance, error) {
	if accountID == "" {
		return Balance{}, ErrInvalidArgument
	}
	l, err := getLedger(ctx, s.db, accountID)
	if errors.Is(err, ErrNotFound) {
		l, err = ensureLedger(ctx, s.db, accountID, s.clock().UTC())
	}
	if err != nil {
		return Balance{}, err
	}
	return l.Snapshot(), nil
}

// Debit charges whole-minute credits for a billed call and returns the
// post-debit snapshot with fresh control flags.
func (s *Service) Debit(ctx context.Context, accountID string, credits int64) (Balance, error) {
	if accountID == "" || credits <= 0 {
		return Balance{}, ErrInvalidArgument
	}
	l, err := addUsed(ctx, s.db, accountID, credits, s.clock().UTC())
	if err != nil {
		return Balance{}, err
	}
	return l.Snapshot(), nil
}

// Grant adds purchased or admin-granted credits to the total.
func (s *Service) Grant(ctx context.Context, accountID string, credits int64) (Balance, error) {
	if accountID == "" || credits <= 0 {
		return Balance{}, ErrInvalidArgument
	}
	l, err := addTotal(ctx, s.db, accountID, credits, s.clock().UTC())
	if err != nil {
		return Balance{}, err
	}
	return l.Snapshot(), nil
}

// GrantTx is Grant joined to the caller's transaction, so a purchase can
// record its payment event and the credit grant atomically.
func (s *Service) GrantTx(ctx context.Context, tx *sql.Tx, accountID string, credits int64) (Balance, error) {
	if accountID == "" || credits <= 0 {
		return Balance{}, ErrInvalidArgument
	}
	l, err := addTotal(ctx, tx, accountID, credits, s.clock().UTC())
	if err != nil {
		return Balance{}, err
	}
	return l.Snapshot(), nil
}

// SetTotal overwrites the granted total (plan change). On downgrade below
// used_credits the available balance reads zero; used_credits is not
// reconciled.
func (s *Service) SetTotal(ctx context.Context, accountID string, credits int64) (Balance, error) {
	if accountID == "" || credits < 0 {
		return Balance{}, ErrInvalidArgument
	}
	l, err := setTotal(ctx, s.db, accountID, credits, s.clock().UTC())
	if err != nil {
		return Balance{}, err
	}
	return l.Snapshot(), nil
}

func (s *Service) SetStatus(ctx context.Context, accountID string, status Status) (Balance, error) {
	if accountID == "" {
		return Balance{}, ErrInvalidArgument
	}
	switch status {
	case StatusActive, StatusInactive, StatusSuspended, StatusCancelled:
	default:
		return Balance{}, ErrInvalidArgument
	}
	l, err := setStatus(ctx, s.db, accountID, status, s.clock().UTC())
	if err != nil {
		return Balance{}, err
	}
	return l.Snapshot(), nil
}
