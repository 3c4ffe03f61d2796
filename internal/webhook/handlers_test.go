package webhook

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voicecredit-platform/internal/accounts"

	"github.com/gin-gonic/gin"
)

func testRouter(h Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/calls", h.HandlePrimary)
	r.POST("/webhooks/provider/call-completed", h.HandleProvider)
	r.POST("/webhooks/simple", h.HandleSimple)
	return r
}

func post(t *testing.T, r *gin.Engine, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response json: %v (%s)", err, w.Body.String())
	}
	return body
}

func TestPrimary_EndToEnd(t *testing.T) {
	p, dir, _, led := testPipeline(t)
	dir.add(accounts.Account{ID: "acct-a", AgentID: "agent_42"})
	led.total["acct-a"] = 10

	r := testRouter(Handlers{Pipeline: p, BillableEventType: "end-of-call-report"})

	payload := `{"eventClassification": "end-of-call-report", "callId": "c1", "agentId": "agent_42", "durationSeconds": 125}`

	w := post(t, r, "/webhooks/calls", payload, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", w.Code, w.Body.String())
	}
	body := decode(t, w)
	ledgerBody := body["ledger"].(map[string]any)
	if ledgerBody["used_credits"].(float64) != 3 || ledgerBody["available_credits"].(float64) != 7 {
		t.Fatalf("ledger = %v", ledgerBody)
	}
	alerts := body["alerts"].(map[string]any)
	if alerts["low_balance"].(bool) || alerts["stop_workflow"].(bool) {
		t.Fatalf("alerts = %v", alerts)
	}

	// Identical redelivery reports duplicate and leaves the ledger alone.
	w = post(t, r, "/webhooks/calls", payload, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("redelivery status = %d, want 200", w.Code)
	}
	body = decode(t, w)
	if body["duplicate"] != true {
		t.Fatalf("expected duplicate flag, got %v", body)
	}
	if got := led.used["acct-a"]; got != 3 {
		t.Fatalf("used credits = %d after redelivery, want 3", got)
	}
}

func TestPrimary_SharedSecret(t *testing.T) {
	p, _, _, _ := testPipeline(t)
	r := testRouter(Handlers{Pipeline: p, SharedSecret: "s3cret"})

	w := post(t, r, "/webhooks/calls", `{}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing secret: status = %d, want 401", w.Code)
	}

	w = post(t, r, "/webhooks/calls", `{}`, map[string]string{"X-Webhook-Secret": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret: status = %d, want 401", w.Code)
	}

	w = post(t, r, "/webhooks/calls", `{"call_id":""}`, map[string]string{"X-Webhook-Secret": "s3cret"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("valid secret, missing call id: status = %d, want 400", w.Code)
	}
}

func TestPrimary_UnresolvableReturns400(t *testing.T) {
	p, _, store, led := testPipeline(t)
	r := testRouter(Handlers{Pipeline: p})

	w := post(t, r, "/webhooks/calls", `{"call_id": "c1", "agent_id": "unbound"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(store.recs) != 0 || len(led.used) != 0 {
		t.Fatalf("no state should change on unresolvable event")
	}
}

func TestProvider_ResolvesByPhoneOnly(t *testing.T) {
	p, dir, _, led := testPipeline(t)
	// agent binding exists but must be ignored on this channel
	dir.add(accounts.Account{ID: "acct-agent", AgentID: "agent_42"})
	dir.add(accounts.Account{ID: "acct-phone", Phone: "+14155550199"})
	led.total["acct-phone"] = 10

	r := testRouter(Handlers{Pipeline: p})

	payload := `{"call_id": "p1", "agent_id": "agent_42", "phone_number": "415-555-0199", "duration_seconds": 30}`
	w := post(t, r, "/webhooks/provider/call-completed", payload, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decode(t, w)
	if body["success"] != true || body["resolvedAccount"] != "acct-phone" {
		t.Fatalf("body = %v", body)
	}
	if led.used["acct-phone"] != 1 {
		t.Fatalf("used = %d, want 1", led.used["acct-phone"])
	}
	if len(led.used) != 1 {
		t.Fatalf("only the phone-matched account may be debited")
	}
}

func TestProvider_Always200(t *testing.T) {
	p, _, _, _ := testPipeline(t)
	r := testRouter(Handlers{Pipeline: p})

	// Unresolvable: 200 with skip flag.
	w := post(t, r, "/webhooks/provider/call-completed", `{"call_id": "p2", "phone_number": "0000000000"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unresolvable: status = %d, want 200", w.Code)
	}
	body := decode(t, w)
	if body["success"] != true || body["skipped"] != true {
		t.Fatalf("body = %v", body)
	}

	// Garbage body: still 200.
	w = post(t, r, "/webhooks/provider/call-completed", `not json at all`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("garbage: status = %d, want 200", w.Code)
	}

	// Store fault: swallowed into 200, flagged in body.
	p2, dir2, store2, _ := testPipeline(t)
	store2.failInsert = errors.New("db down")
	dir2.add(accounts.Account{ID: "acct-phone", Phone: "+14155550199"})
	r2 := testRouter(Handlers{Pipeline: p2})
	w = post(t, r2, "/webhooks/provider/call-completed", `{"call_id": "p3", "phone_number": "4155550199", "duration_seconds": 10}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("store fault: status = %d, want 200", w.Code)
	}
	body = decode(t, w)
	if body["success"] != false {
		t.Fatalf("store fault should flag success=false, got %v", body)
	}
}

func TestSimple_ClassificationFilter(t *testing.T) {
	p, dir, store, _ := testPipeline(t)
	dir.add(accounts.Account{ID: "acct-a"})
	r := testRouter(Handlers{Pipeline: p, BillableEventType: "call_ended"})

	// Non-billable classification: accepted and skipped.
	w := post(t, r, "/webhooks/simple", `{"event_type": "call_started", "call_id": "s1", "account_id": "acct-a", "duration_seconds": 60}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body := decode(t, w); body["skipped"] != true {
		t.Fatalf("body = %v", body)
	}
	if len(store.recs) != 0 {
		t.Fatalf("non-billable events must not persist")
	}

	// Billable classification bills with 201.
	w = post(t, r, "/webhooks/simple", `{"event_type": "call_ended", "call_id": "s2", "account_id": "acct-a", "duration_seconds": 60}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", w.Code, w.Body.String())
	}
	if _, ok := store.recs["s2"]; !ok {
		t.Fatalf("expected record for s2")
	}
}

func TestPrimary_StoreFaultIs500(t *testing.T) {
	p, dir, store, _ := testPipeline(t)
	dir.add(accounts.Account{ID: "acct-a", AgentID: "agent_42"})
	store.failInsert = errors.New("db down")
	r := testRouter(Handlers{Pipeline: p})

	w := post(t, r, "/webhooks/calls", `{"call_id": "c1", "agent_id": "agent_42", "duration_seconds": 60}`, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}
