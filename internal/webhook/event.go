package webhook

import "time"

// Event is the canonical call-completion event every ingestion channel is
// normalized into before resolution and billing.
type Event struct {
	// CallID is the provider-assigned call identifier — the idempotency key
	// for the whole pipeline.
	CallID string `json:"call_id"`

	// Account hints, in resolution priority order.
	AgentID    string `json:"agent_id,omitempty"`
	AccountRef string `json:"account_ref,omitempty"` // explicit account id
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`

	DurationSeconds int `json:"duration_seconds"`

	// DurationMinutes is ceil(DurationSeconds/60): a partial minute always
	// costs one whole minute, never fractional, never rounded down.
	DurationMinutes int `json:"duration_minutes"`

	Transcript string `json:"transcript,omitempty"`
	Summary    string `json:"summary,omitempty"`

	// EventType is the inbound classification tag (e.g. end-of-call-report).
	EventType string `json:"event_type,omitempty"`

	// Metadata is the raw metadata object from the payload, "{}" when absent.
	Metadata string `json:"metadata,omitempty"`

	StartedAt time.Time `json:"started_at,omitempty"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
}
