package ledger

import "time"

// Ledger is the per-account prepaid credit balance. One credit buys one
// whole minute of billable call time.
//
// Invariants:
// - UsedCredits only increases, and only through Debit.
// - TotalCredits increases via purchase/admin grant; an explicit downgrade
//   may lower it without reconciling UsedCredits (display is clamped).
// - Rows are created lazily with zero balances and never deleted.
type Ledger struct {
	AccountID    string `json:"account_id" db:"account_id"`
	TotalCredits int64  `json:"total_credits" db:"total_credits"`
	UsedCredits  int64  `json:"used_credits" db:"used_credits"`

	Status Status `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// AvailableCredits is always clamped at zero for read purposes, even when
// usage debt exceeds the granted total internally.
func (l Ledger) AvailableCredits() int64 {
	avail := l.TotalCredits - l.UsedCredits
	if avail < 0 {
		return 0
	}
	return avail
}

// lowBalanceThreshold is the warn zone upper bound (exclusive).
const lowBalanceThreshold = 5

// Balance is the ledger snapshot returned to callers, with the workflow
// control flags downstream automation relies on to stop spending. Flags are
// recomputed on every read; they are never cached.
type Balance struct {
	AccountID        string `json:"account_id"`
	TotalCredits     int64  `json:"total_credits"`
	UsedCredits      int64  `json:"used_credits"`
	AvailableCredits int64  `json:"available_credits"`

	LowBalance   bool   `json:"low_balance"`
	StopWorkflow bool   `json:"stop_workflow"`
	Alert        string `json:"alert"`
}

func (l Ledger) Snapshot() Balance {
	avail := l.AvailableCredits()
	b := Balance{
		AccountID:        l.AccountID,
		TotalCredits:     l.TotalCredits,
		UsedCredits:      l.UsedCredits,
		AvailableCredits: avail,
		LowBalance:       avail > 0 && avail < lowBalanceThreshold,
		StopWorkflow:     avail <= 0,
	}
	switch {
	case b.StopWorkflow:
		b.Alert = "Credits exhausted. Purchase more credits to continue receiving calls."
	case b.LowBalance:
		b.Alert = "Credits running low. Top up soon to avoid interruption."
	default:
		b.Alert = "Credit balance nominal."
	}
	return b
}
