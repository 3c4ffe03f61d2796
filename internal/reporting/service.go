package reporting

import (
	"context"
	"errors"
	"time"

	"voicecredit-platform/internal/calls"
	"voicecredit-platform/internal/payments"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting. Implementations must scope
// every read to one account and should query immutable sources (call records,
// payment events).
type Repository interface {
	ListCalls(ctx context.Context, accountID string, from, to time.Time) ([]calls.Record, error)
	ListPayments(ctx context.Context, accountID string, from, to time.Time) ([]payments.Event, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func validateRange(r TimeRange) error {
	if r.From.IsZero() || r.To.IsZero() || !r.To.After(r.From) {
		return ErrInvalidRequest
	}
	return nil
}

func (s *Service) UsageSummary(ctx context.Context, req UsageSummaryRequest) (UsageSummary, error) {
	if req.AccountID == "" {
		return UsageSummary{}, ErrInvalidRequest
	}
	if err := validateRange(req.Range); err != nil {
		return UsageSummary{}, err
	}

	rows, err := s.repo.ListCalls(ctx, req.AccountID, req.Range.From, req.Range.To)
	if err != nil {
		return UsageSummary{}, err
	}

	out := UsageSummary{AccountID: req.AccountID}
	for _, rec := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += rec.DurationSeconds
		out.CreditsSpent += int64(rec.DurationMinutes)
		switch rec.Status {
		case calls.StatusCompleted:
			out.CompletedCalls++
		case calls.StatusFailed:
			out.FailedCalls++
		case calls.StatusProcessing:
			out.ProcessingCalls++
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	return out, nil
}

func (s *Service) PurchaseSummary(ctx context.Context, req PurchaseSummaryRequest) (PurchaseSummary, error) {
	if req.AccountID == "" {
		return PurchaseSummary{}, ErrInvalidRequest
	}
	if err := validateRange(req.Range); err != nil {
		return PurchaseSummary{}, err
	}

	rows, err := s.repo.ListPayments(ctx, req.AccountID, req.Range.From, req.Range.To)
	if err != nil {
		return PurchaseSummary{}, err
	}

	out := PurchaseSummary{AccountID: req.AccountID}
	for _, ev := range rows {
		out.Payments++
		out.TotalAmountCents += ev.AmountCents
		out.CreditsPurchased += ev.Credits
		if out.Currency == "" {
			out.Currency = ev.Currency
		}
	}
	return out, nil
}
