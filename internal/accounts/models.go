package accounts

import "time"

// Account is one end-user of the platform.
//
// Identity invariant: Email is globally unique (stored lowercased/trimmed).
// Binding invariant: AgentID, when set, is globally unique — a voice-provider
// agent belongs to exactly one account at a time.
//
// Accounts are never hard-deleted; lifecycle is tracked via Status.
type Account struct {
	ID    string `json:"id" db:"id"`
	Email string `json:"email" db:"email"`
	Name  string `json:"name" db:"name"`
	Role  string `json:"role" db:"role"`

	Status Status `json:"status" db:"status"`

	// AgentID is the voice-provider agent bound to this account.
	// Empty when no agent is bound yet.
	AgentID string `json:"agent_id,omitempty" db:"agent_id"`

	// Phone is used only for inbound-call matching, not for login.
	Phone string `json:"phone,omitempty" db:"phone"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusActive         Status = "active"
	StatusInactive       Status = "inactive"
	StatusCancelled      Status = "cancelled"
	StatusBlocked        Status = "blocked"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusActive, StatusInactive, StatusCancelled, StatusBlocked:
		return true
	default:
		return false
	}
}
