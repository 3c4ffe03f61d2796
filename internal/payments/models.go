package payments

import "time"

// Event is one processed payment-provider event. The event id carries a
// unique constraint; it is the dedup guard against Stripe redeliveries.
type Event struct {
	EventID     string
	SessionID   string
	AccountID   string
	AmountCents int64
	Currency    string
	Credits     int64
	CreatedAt   time.Time
}
