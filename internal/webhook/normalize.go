package webhook

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Normalize maps any of the three inbound payload shapes into one canonical
// Event. It is pure and total: malformed or incomplete payloads normalize to
// zero values, and validation is the caller's job.
//
// Every field accepts both snake_case and camelCase spellings, plus the
// nested paths the direct provider uses. Candidate paths are probed in a
// fixed order (snake_case first), so precedence is deterministic when both
// conventions are present.

var (
	callIDPaths   = []string{"call_id", "callId", "call.id", "message.call.id"}
	agentIDPaths  = []string{"agent_id", "agentId", "assistant_id", "assistantId", "message.call.assistantId"}
	accountPaths  = []string{"account_id", "accountId", "user_id", "userId"}
	emailPaths    = []string{"email", "customer_email", "customerEmail", "customer.email"}
	phonePaths    = []string{"phone_number", "phoneNumber", "customer.number", "message.call.customer.number", "from"}
	durationPaths = []string{"duration_seconds", "durationSeconds", "duration", "call_duration", "callDuration", "message.durationSeconds"}
	transcriptPaths = []string{"transcript", "message.transcript", "message.artifact.transcript"}
	summaryPaths    = []string{"summary", "message.summary", "message.analysis.summary", "analysis.summary"}
	eventTypePaths  = []string{"event_classification", "eventClassification", "event_type", "eventType", "type", "message.type"}
	startedAtPaths  = []string{"start_time", "startTime", "started_at", "startedAt", "message.startedAt"}
	endedAtPaths    = []string{"end_time", "endTime", "ended_at", "endedAt", "message.endedAt"}
)

func Normalize(raw []byte) Event {
	body := gjson.ParseBytes(raw)
	if !body.IsObject() {
		return Event{Metadata: "{}"}
	}

	ev := Event{
		CallID:     firstString(body, callIDPaths),
		AgentID:    firstString(body, agentIDPaths),
		AccountRef: firstString(body, accountPaths),
		Email:      strings.TrimSpace(firstString(body, emailPaths)),
		Phone:      firstString(body, phonePaths),
		Transcript: firstString(body, transcriptPaths),
		Summary:    firstString(body, summaryPaths),
		EventType:  firstString(body, eventTypePaths),
		StartedAt:  firstTime(body, startedAtPaths),
		EndedAt:    firstTime(body, endedAtPaths),
	}

	ev.DurationSeconds = int(firstInt(body, durationPaths))
	if ev.DurationSeconds < 0 {
		ev.DurationSeconds = 0
	}
	// Fall back to the timestamps when the payload omits an explicit duration.
	if ev.DurationSeconds == 0 && !ev.StartedAt.IsZero() && ev.EndedAt.After(ev.StartedAt) {
		ev.DurationSeconds = int(ev.EndedAt.Sub(ev.StartedAt) / time.Second)
	}
	ev.DurationMinutes = MinutesForSeconds(ev.DurationSeconds)

	if meta := body.Get("metadata"); meta.IsObject() {
		ev.Metadata = meta.Raw
	} else {
		ev.Metadata = "{}"
	}

	return ev
}

// MinutesForSeconds rounds call duration up to whole minutes. Any positive
// duration bills at least one minute; zero bills zero.
func MinutesForSeconds(seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return (seconds + 59) / 60
}

func firstString(body gjson.Result, paths []string) string {
	for _, p := range paths {
		if v := body.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func firstInt(body gjson.Result, paths []string) int64 {
	for _, p := range paths {
		if v := body.Get(p); v.Exists() {
			if n := v.Int(); n != 0 {
				return n
			}
		}
	}
	return 0
}

func firstTime(body gjson.Result, paths []string) time.Time {
	for _, p := range paths {
		v := body.Get(p)
		if !v.Exists() {
			continue
		}
		switch v.Type {
		case gjson.String:
			if t, err := time.Parse(time.RFC3339, v.String()); err == nil {
				return t
			}
		case gjson.Number:
			// Epoch milliseconds, the other convention providers use.
			if ms := v.Int(); ms > 0 {
				return time.UnixMilli(ms).UTC()
			}
		}
	}
	return time.Time{}
}
