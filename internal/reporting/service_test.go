package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"voicecredit-platform/internal/calls"
	"voicecredit-platform/internal/payments"
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC)
}

func weekRange() TimeRange {
	return TimeRange{From: day(1), To: day(8)}
}

func TestUsageSummary(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Calls = []calls.Record{
		{CallID: "c1", AccountID: "acct-a", DurationSeconds: 125, DurationMinutes: 3, Status: calls.StatusCompleted, CreatedAt: day(2)},
		{CallID: "c2", AccountID: "acct-a", DurationSeconds: 35, DurationMinutes: 1, Status: calls.StatusCompleted, CreatedAt: day(3)},
		{CallID: "c3", AccountID: "acct-a", DurationSeconds: 0, DurationMinutes: 0, Status: calls.StatusFailed, CreatedAt: day(4)},
		// other account, must not leak in
		{CallID: "c4", AccountID: "acct-b", DurationSeconds: 600, DurationMinutes: 10, Status: calls.StatusCompleted, CreatedAt: day(4)},
		// outside the range
		{CallID: "c5", AccountID: "acct-a", DurationSeconds: 60, DurationMinutes: 1, Status: calls.StatusCompleted, CreatedAt: day(20)},
	}
	s := NewService(repo)

	got, err := s.UsageSummary(context.Background(), UsageSummaryRequest{AccountID: "acct-a", Range: weekRange()})
	if err != nil {
		t.Fatalf("UsageSummary: %v", err)
	}
	if got.TotalCalls != 3 || got.CompletedCalls != 2 || got.FailedCalls != 1 {
		t.Fatalf("counts = %+v", got)
	}
	if got.TotalDurationSeconds != 160 {
		t.Fatalf("total duration = %d, want 160", got.TotalDurationSeconds)
	}
	if got.AverageDurationSeconds != 53 {
		t.Fatalf("average duration = %d, want 53", got.AverageDurationSeconds)
	}
	if got.CreditsSpent != 4 {
		t.Fatalf("credits spent = %d, want 4", got.CreditsSpent)
	}
}

func TestUsageSummary_Validation(t *testing.T) {
	s := NewService(NewMemoryRepo())

	_, err := s.UsageSummary(context.Background(), UsageSummaryRequest{Range: weekRange()})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("missing account: err = %v", err)
	}

	_, err = s.UsageSummary(context.Background(), UsageSummaryRequest{
		AccountID: "acct-a",
		Range:     TimeRange{From: day(8), To: day(1)},
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("inverted range: err = %v", err)
	}
}

func TestPurchaseSummary(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Payments = []payments.Event{
		{EventID: "evt-1", AccountID: "acct-a", AmountCents: 2500, Credits: 50, Currency: "usd", CreatedAt: day(2)},
		{EventID: "evt-2", AccountID: "acct-a", AmountCents: 500, Credits: 10, Currency: "usd", CreatedAt: day(5)},
		{EventID: "evt-3", AccountID: "acct-b", AmountCents: 9900, Credits: 198, Currency: "usd", CreatedAt: day(5)},
	}
	s := NewService(repo)

	got, err := s.PurchaseSummary(context.Background(), PurchaseSummaryRequest{AccountID: "acct-a", Range: weekRange()})
	if err != nil {
		t.Fatalf("PurchaseSummary: %v", err)
	}
	if got.Payments != 2 || got.TotalAmountCents != 3000 || got.CreditsPurchased != 60 {
		t.Fatalf("summary = %+v", got)
	}
	if got.Currency != "usd" {
		t.Fatalf("currency = %q", got.Currency)
	}
}
