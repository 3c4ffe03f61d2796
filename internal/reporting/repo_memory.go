package reporting

import (
	"context"
	"errors"
	"sync"
	"time"

	"voicecredit-platform/internal/calls"
	"voicecredit-platform/internal/payments"
)

// MemoryRepo is an in-memory reporting repository for tests and early
// development. It enforces account scoping on reads.
type MemoryRepo struct {
	mu sync.Mutex

	Calls    []calls.Record
	Payments []payments.Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func inRange(at time.Time, from, to time.Time) bool {
	if at.IsZero() {
		return true
	}
	return !at.Before(from) && at.Before(to)
}

func (r *MemoryRepo) ListCalls(_ context.Context, accountID string, from, to time.Time) ([]calls.Record, error) {
	if accountID == "" {
		return nil, errors.New("account_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]calls.Record, 0)
	for _, c := range r.Calls {
		if c.AccountID != accountID || !inRange(c.CreatedAt, from, to) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *MemoryRepo) ListPayments(_ context.Context, accountID string, from, to time.Time) ([]payments.Event, error) {
	if accountID == "" {
		return nil, errors.New("account_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]payments.Event, 0)
	for _, ev := range r.Payments {
		if ev.AccountID != accountID || !inRange(ev.CreatedAt, from, to) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
