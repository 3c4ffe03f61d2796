package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - Actor and ip capture are best-effort; critical flows must not block on
//   audit failures.
type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorAccountID is the authenticated account causing the event.
	ActorAccountID string `json:"actor_account_id,omitempty" db:"actor_account_id"`
	ActorRole      string `json:"actor_role,omitempty" db:"actor_role"`

	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// TargetAccountID is the account acted upon, when different from the actor.
	TargetAccountID string `json:"target_account_id,omitempty" db:"target_account_id"`
	CallID          string `json:"call_id,omitempty" db:"call_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeAdminAction  EventType = "admin_action"
	EventTypeCreditChange EventType = "credit_change"
	EventTypeAgentBinding EventType = "agent_binding"
)
