package webhook

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"voicecredit-platform/internal/accounts"
	"voicecredit-platform/internal/calls"
	"voicecredit-platform/internal/ledger"
)

// Outcome classifies how the pipeline disposed of one inbound event.
type Outcome string

const (
	OutcomeBilled      Outcome = "billed"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeNoCallID    Outcome = "missing_call_id"
	OutcomeNoAccount   Outcome = "no_account"
	OutcomeNotBillable Outcome = "not_billable"
)

// Result is the channel-agnostic disposition; handlers map it to each
// channel's HTTP contract.
type Result struct {
	Outcome Outcome
	Reason  string

	Event     Event
	AccountID string

	Record  calls.Record
	Balance ledger.Balance
}

func (r Result) Billed() bool { return r.Outcome == OutcomeBilled }

// CallStore is the duplicate guard + append-only persistence contract.
// *calls.Repository satisfies it.
type CallStore interface {
	Exists(ctx context.Context, callID string) (bool, error)
	Insert(ctx context.Context, rec calls.Record) error
}

// CreditLedger is the debit contract. *ledger.Service satisfies it.
type CreditLedger interface {
	Debit(ctx context.Context, accountID string, credits int64) (ledger.Balance, error)
	GetBalance(ctx context.Context, accountID string) (ledger.Balance, error)
}

// ChannelOptions tune pipeline behavior per ingestion channel.
type ChannelOptions struct {
	// Name tags log lines with the originating channel.
	Name string

	// PhoneOnly restricts resolution to phone matching (the signature-free
	// provider channel carries no agent binding).
	PhoneOnly bool

	// BillableEventType, when set, skips every event whose classification
	// differs — checked before the duplicate guard as the cheaper filter.
	BillableEventType string
}

// Pipeline runs the shared ingestion states:
// received → normalized → resolved → duplicate-checked → persisted → debited.
//
// Exactly-once effect: the call_records uniqueness constraint is the sole
// serialization point for one call id. The pre-check is an optimization; a
// write-time violation is handled identically, never surfaced as a fault.
type Pipeline struct {
	resolver *Resolver
	store    CallStore
	credits  CreditLedger
	clock    func() time.Time
}

func NewPipeline(resolver *Resolver, store CallStore, credits CreditLedger) *Pipeline {
	return &Pipeline{resolver: resolver, store: store, credits: credits, clock: time.Now}
}

// Process ingests one raw payload. The returned error is reserved for
// persistence/store faults; every business disposition (duplicate, skip,
// unresolvable) is a Result, not an error.
func (p *Pipeline) Process(ctx context.Context, log *slog.Logger, raw []byte, opts ChannelOptions) (Result, error) {
	ev := Normalize(raw)
	res := Result{Event: ev}

	if opts.BillableEventType != "" && ev.EventType != opts.BillableEventType {
		res.Outcome = OutcomeNotBillable
		res.Reason = "event type is not billable"
		log.Debug("webhook event skipped", "channel", opts.Name, "event_type", ev.EventType)
		return res, nil
	}

	if ev.CallID == "" {
		res.Outcome = OutcomeNoCallID
		res.Reason = "payload carries no call id"
		log.Warn("webhook event without call id", "channel", opts.Name)
		return res, nil
	}

	acct, err := p.resolve(ctx, ev, opts)
	if err != nil {
		if errors.Is(err, ErrNoAccount) {
			res.Outcome = OutcomeNoAccount
			res.Reason = "no matching account"
			log.Info("webhook event unresolvable",
				"channel", opts.Name, "call_id", ev.CallID, "agent_id", ev.AgentID, "phone", ev.Phone)
			return res, nil
		}
		return res, err
	}
	res.AccountID = acct.ID

	// Cheap pre-check; the insert below remains authoritative under races.
	exists, err := p.store.Exists(ctx, ev.CallID)
	if err != nil {
		return res, err
	}
	if exists {
		res.Outcome = OutcomeDuplicate
		res.Reason = "call already processed"
		log.Info("webhook duplicate call", "channel", opts.Name, "call_id", ev.CallID)
		return res, nil
	}

	rec := calls.Record{
		CallID:          ev.CallID,
		AccountID:       acct.ID,
		Phone:           ev.Phone,
		DurationSeconds: ev.DurationSeconds,
		DurationMinutes: ev.DurationMinutes,
		Transcript:      ev.Transcript,
		Summary:         ev.Summary,
		EventType:       ev.EventType,
		Metadata:        ev.Metadata,
		Status:          calls.StatusCompleted,
		StartedAt:       ev.StartedAt,
		EndedAt:         ev.EndedAt,
		CreatedAt:       p.clock().UTC(),
	}
	if err := p.store.Insert(ctx, rec); err != nil {
		if errors.Is(err, calls.ErrDuplicateCall) {
			// Lost the insert race to a concurrent retry; same as pre-check.
			res.Outcome = OutcomeDuplicate
			res.Reason = "call already processed"
			log.Info("webhook duplicate call (insert race)", "channel", opts.Name, "call_id", ev.CallID)
			return res, nil
		}
		return res, err
	}
	res.Record = rec

	bal, err := p.debit(ctx, acct.ID, ev.DurationMinutes)
	if err != nil {
		// The record exists but the debit failed; surfacing the fault lets
		// the agent-authenticated channel alarm while the record blocks
		// re-billing of this call id forever.
		return res, err
	}
	res.Balance = bal
	res.Outcome = OutcomeBilled

	log.Info("call billed",
		"channel", opts.Name,
		"call_id", ev.CallID,
		"account_id", acct.ID,
		"minutes", ev.DurationMinutes,
		"available_credits", bal.AvailableCredits,
		"stop_workflow", bal.StopWorkflow,
	)
	return res, nil
}

func (p *Pipeline) resolve(ctx context.Context, ev Event, opts ChannelOptions) (accounts.Account, error) {
	if opts.PhoneOnly {
		return p.resolver.ResolveByPhone(ctx, ev)
	}
	return p.resolver.Resolve(ctx, ev)
}

func (p *Pipeline) debit(ctx context.Context, accountID string, minutes int) (ledger.Balance, error) {
	if minutes <= 0 {
		// Zero-second calls persist for audit but cost nothing.
		return p.credits.GetBalance(ctx, accountID)
	}
	return p.credits.Debit(ctx, accountID, int64(minutes))
}
