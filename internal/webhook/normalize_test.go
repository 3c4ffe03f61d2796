package webhook

import (
	"testing"
	"time"
)

func TestMinutesForSeconds_RoundsUp(t *testing.T) {
	cases := map[int]int{
		0:   0,
		1:   1,
		59:  1,
		60:  1,
		61:  2,
		119: 2,
		120: 2,
		125: 3,
	}
	for sec, want := range cases {
		if got := MinutesForSeconds(sec); got != want {
			t.Errorf("MinutesForSeconds(%d) = %d, want %d", sec, got, want)
		}
	}
}

func TestNormalize_SnakeCase(t *testing.T) {
	ev := Normalize([]byte(`{
		"call_id": "c1",
		"agent_id": "agent_42",
		"phone_number": "+1 (415) 555-0199",
		"duration_seconds": 125,
		"transcript": "hello",
		"summary": "greeting",
		"event_type": "end-of-call-report"
	}`))

	if ev.CallID != "c1" || ev.AgentID != "agent_42" {
		t.Fatalf("unexpected ids: %+v", ev)
	}
	if ev.Phone != "+1 (415) 555-0199" {
		t.Fatalf("phone = %q", ev.Phone)
	}
	if ev.DurationSeconds != 125 || ev.DurationMinutes != 3 {
		t.Fatalf("duration = %d/%d", ev.DurationSeconds, ev.DurationMinutes)
	}
	if ev.EventType != "end-of-call-report" {
		t.Fatalf("event type = %q", ev.EventType)
	}
}

func TestNormalize_CamelCase(t *testing.T) {
	ev := Normalize([]byte(`{
		"callId": "c2",
		"agentId": "agent_7",
		"phoneNumber": "415-555-0199",
		"durationSeconds": 61,
		"eventType": "end-of-call-report"
	}`))

	if ev.CallID != "c2" || ev.AgentID != "agent_7" || ev.Phone != "415-555-0199" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.DurationMinutes != 2 {
		t.Fatalf("minutes = %d, want 2", ev.DurationMinutes)
	}
}

func TestNormalize_EventClassificationSpelling(t *testing.T) {
	ev := Normalize([]byte(`{
		"eventClassification": "end-of-call-report",
		"callId": "c1",
		"agentId": "agent_42",
		"durationSeconds": 125
	}`))

	if ev.EventType != "end-of-call-report" {
		t.Fatalf("event type = %q, want end-of-call-report", ev.EventType)
	}
	if ev.CallID != "c1" || ev.DurationMinutes != 3 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestNormalize_SnakeWinsWhenBothPresent(t *testing.T) {
	// Precedence only needs to be deterministic; this pins the documented
	// order so a refactor cannot silently change it.
	ev := Normalize([]byte(`{"call_id": "snake", "callId": "camel"}`))
	if ev.CallID != "snake" {
		t.Fatalf("call id = %q, want snake", ev.CallID)
	}
}

func TestNormalize_NestedProviderShape(t *testing.T) {
	ev := Normalize([]byte(`{
		"message": {
			"type": "end-of-call-report",
			"call": {"id": "c3", "customer": {"number": "14155550199"}},
			"durationSeconds": 59,
			"transcript": "hi",
			"analysis": {"summary": "short call"}
		}
	}`))

	if ev.CallID != "c3" {
		t.Fatalf("call id = %q", ev.CallID)
	}
	if ev.Phone != "14155550199" {
		t.Fatalf("phone = %q", ev.Phone)
	}
	if ev.EventType != "end-of-call-report" {
		t.Fatalf("event type = %q", ev.EventType)
	}
	if ev.DurationMinutes != 1 {
		t.Fatalf("minutes = %d", ev.DurationMinutes)
	}
}

func TestNormalize_TotalOnGarbage(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte(``), []byte(`not json`), []byte(`[1,2,3]`), []byte(`42`)} {
		ev := Normalize(raw)
		if ev.CallID != "" || ev.DurationSeconds != 0 || ev.DurationMinutes != 0 {
			t.Errorf("Normalize(%q) should be zero-valued, got %+v", raw, ev)
		}
		if ev.Metadata != "{}" {
			t.Errorf("Normalize(%q) metadata = %q, want {}", raw, ev.Metadata)
		}
	}
}

func TestNormalize_DurationFromTimestamps(t *testing.T) {
	ev := Normalize([]byte(`{
		"call_id": "c4",
		"started_at": "2026-01-02T10:00:00Z",
		"ended_at": "2026-01-02T10:02:05Z"
	}`))
	if ev.DurationSeconds != 125 {
		t.Fatalf("derived seconds = %d, want 125", ev.DurationSeconds)
	}
	if ev.DurationMinutes != 3 {
		t.Fatalf("derived minutes = %d, want 3", ev.DurationMinutes)
	}
	want := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	if !ev.StartedAt.Equal(want) {
		t.Fatalf("started at = %v", ev.StartedAt)
	}
}

func TestNormalize_NegativeDurationClamped(t *testing.T) {
	ev := Normalize([]byte(`{"call_id": "c5", "duration_seconds": -30}`))
	if ev.DurationSeconds != 0 || ev.DurationMinutes != 0 {
		t.Fatalf("negative duration should clamp to zero, got %d/%d", ev.DurationSeconds, ev.DurationMinutes)
	}
}

func TestNormalize_MetadataPassthrough(t *testing.T) {
	ev := Normalize([]byte(`{"call_id": "c6", "metadata": {"campaign": "q3"}}`))
	if ev.Metadata != `{"campaign": "q3"}` {
		t.Fatalf("metadata = %q", ev.Metadata)
	}
}
