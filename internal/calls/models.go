package calls

import "time"

// Record is one externally-identified phone call, persisted exactly once.
//
// CallID is the provider-assigned call identifier and the idempotency key for
// the whole billing pipeline: the store enforces a hard uniqueness constraint
// on it, and records are never mutated or deleted afterwards (audit trail).
type Record struct {
	CallID    string `json:"call_id" db:"call_id"`
	AccountID string `json:"account_id" db:"account_id"`

	// Phone is the resolved caller number as received, pre-normalization.
	Phone string `json:"phone,omitempty" db:"phone"`

	DurationSeconds int `json:"duration_seconds" db:"duration_seconds"`

	// DurationMinutes is the billed whole-minute duration (seconds rounded
	// up). Stored alongside seconds so billing is auditable per record.
	DurationMinutes int `json:"duration_minutes" db:"duration_minutes"`

	Transcript string `json:"transcript,omitempty" db:"transcript"`
	Summary    string `json:"summary,omitempty" db:"summary"`

	// EventType is the inbound event classification tag.
	EventType string `json:"event_type,omitempty" db:"event_type"`

	// Metadata is free-form JSON from the provider payload.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	Status Status `json:"status" db:"status"`

	StartedAt time.Time `json:"started_at,omitempty" db:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty" db:"ended_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Status string

const (
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusProcessing Status = "processing"
)
