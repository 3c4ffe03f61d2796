package payments

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"voicecredit-platform/internal/ledger"
	"voicecredit-platform/pkg/utils"

	"github.com/shopspring/decimal"
)

var ErrInvalidArgument = errors.New("invalid argument")

// CreditGrantor adds purchased credits to an account's total inside the
// purchase transaction.
type CreditGrantor interface {
	GrantTx(ctx context.Context, tx *sql.Tx, accountID string, credits int64) (ledger.Balance, error)
}

// Service turns completed checkout sessions into credit grants. The
// payment_events insert is the serialization point: once an event id is
// recorded no second grant can happen for it, and the grant commits in the
// same transaction as the event row.
type Service struct {
	db         *sql.DB
	credits    CreditGrantor
	priceCents int64
	clock      func() time.Time
}

func NewService(db *sql.DB, credits CreditGrantor, priceCents int64) *Service {
	return &Service{db: db, credits: credits, priceCents: priceCents, clock: time.Now}
}

// CreditsForAmount converts a paid amount in minor units to whole credits at
// the configured price. Partial credits are never granted; the remainder is
// dropped.
func (s *Service) CreditsForAmount(amountCents int64) int64 {
	if amountCents <= 0 || s.priceCents <= 0 {
		return 0
	}
	return decimal.NewFromInt(amountCents).
		Div(decimal.NewFromInt(s.priceCents)).
		Floor().
		IntPart()
}

// RecordCheckout records a completed checkout session and grants the credits
// it paid for. A replayed event id returns ErrEventProcessed and grants
// nothing.
func (s *Service) RecordCheckout(ctx context.Context, eventID, sessionID, accountID string, amountCents int64, currency string) (ledger.Balance, int64, error) {
	if eventID == "" || accountID == "" || amountCents <= 0 {
		return ledger.Balance{}, 0, ErrInvalidArgument
	}

	credits := s.CreditsForAmount(amountCents)
	if credits <= 0 {
		return ledger.Balance{}, 0, ErrInvalidArgument
	}

	ev := Event{
		EventID:     eventID,
		SessionID:   sessionID,
		AccountID:   accountID,
		AmountCents: amountCents,
		Currency:    currency,
		Credits:     credits,
		CreatedAt:   s.clock().UTC(),
	}

	var bal ledger.Balance
	err := utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if err := insertEvent(ctx, tx, ev); err != nil {
			return err
		}
		b, err := s.credits.GrantTx(ctx, tx, accountID, credits)
		if err != nil {
			return err
		}
		bal = b
		return nil
	})
	if err != nil {
		return ledger.Balance{}, 0, err
	}
	return bal, credits, nil
}

// History lists processed payment events for an account, newest first.
func (s *Service) History(ctx context.Context, accountID string, limit int) ([]Event, error) {
	if accountID == "" {
		return nil, ErrInvalidArgument
	}
	return listEventsByAccount(ctx, s.db, accountID, limit)
}
