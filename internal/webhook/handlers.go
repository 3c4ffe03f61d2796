package webhook

import (
	"crypto/subtle"
	"io"
	"net/http"

	"voicecredit-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

const headerWebhookSecret = "X-Webhook-Secret"

// maxBodyBytes caps inbound payloads; transcripts are large but bounded.
const maxBodyBytes = 1 << 20

// Handlers exposes the three ingestion channels. They share one pipeline and
// differ only in auth and failure-visibility policy:
//
//   - Primary: shared-secret header (when configured); caller is the internal
//     orchestration relay, so actionable errors surface as 4xx/5xx.
//   - Provider: signature-free and ALWAYS answers 200 — the voice provider's
//     retry logic must never be fed error statuses; faults are logged only.
//   - Simple: legacy flat shape; filters on event classification before
//     anything else.
type Handlers struct {
	Pipeline *Pipeline

	// SharedSecret guards the primary channel. Empty disables the check.
	SharedSecret string

	// BillableEventType filters the primary and simple channels.
	BillableEventType string
}

// HandlePrimary is the agent-authenticated ingestion endpoint.
func (h Handlers) HandlePrimary(c *gin.Context) {
	log := logger.FromGin(c)

	if h.SharedSecret != "" {
		got := c.GetHeader(headerWebhookSecret)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.SharedSecret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
			return
		}
	}

	raw, err := readBody(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	res, err := h.Pipeline.Process(c.Request.Context(), log, raw, ChannelOptions{
		Name:              "primary",
		BillableEventType: h.BillableEventType,
	})
	if err != nil {
		log.Error("primary webhook processing failed", "err", err, "call_id", res.Event.CallID)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	switch res.Outcome {
	case OutcomeBilled:
		c.JSON(http.StatusCreated, billedBody(res))
	case OutcomeDuplicate:
		c.JSON(http.StatusOK, gin.H{"duplicate": true, "reason": res.Reason})
	case OutcomeNotBillable:
		c.JSON(http.StatusOK, gin.H{"skipped": true, "reason": res.Reason})
	case OutcomeNoCallID:
		// The relay can fix a malformed payload; tell it so.
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Reason})
	case OutcomeNoAccount:
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Reason})
	default:
		c.JSON(http.StatusOK, gin.H{"skipped": true, "reason": res.Reason})
	}
}

// HandleProvider is the direct-provider ingestion endpoint. Whatever happens
// — missing fields, no account, duplicate, even a store fault — it answers
// 200 so the provider's retry/backoff never storms the endpoint. Real faults
// are visible server-side only.
func (h Handlers) HandleProvider(c *gin.Context) {
	log := logger.FromGin(c)

	raw, err := readBody(c)
	if err != nil {
		log.Warn("provider webhook unreadable body", "err", err)
		c.JSON(http.StatusOK, gin.H{"success": true, "skipped": true, "reason": "unreadable body"})
		return
	}

	res, err := h.Pipeline.Process(c.Request.Context(), log, raw, ChannelOptions{
		Name:      "provider",
		PhoneOnly: true,
	})
	if err != nil {
		log.Error("provider webhook processing failed", "err", err, "call_id", res.Event.CallID)
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "internal error"})
		return
	}

	if res.Outcome == OutcomeBilled {
		c.JSON(http.StatusOK, gin.H{
			"success":          true,
			"callId":           res.Record.CallID,
			"resolvedAccount":  res.AccountID,
			"billedMinutes":    res.Record.DurationMinutes,
			"availableCredits": res.Balance.AvailableCredits,
			"stopWorkflow":     res.Balance.StopWorkflow,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "skipped": true, "reason": res.Reason})
}

// HandleSimple is the legacy flat-payload endpoint. The classification filter
// runs before the duplicate guard; non-billable events are accepted-and-
// skipped with 200.
func (h Handlers) HandleSimple(c *gin.Context) {
	log := logger.FromGin(c)

	raw, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"skipped": true, "reason": "unreadable body"})
		return
	}

	res, err := h.Pipeline.Process(c.Request.Context(), log, raw, ChannelOptions{
		Name:              "simple",
		BillableEventType: h.BillableEventType,
	})
	if err != nil {
		// This channel is not agent-authenticated; absorb the fault and
		// leave the alarm to the logs.
		log.Error("simple webhook processing failed", "err", err, "call_id", res.Event.CallID)
		c.JSON(http.StatusOK, gin.H{"skipped": true, "reason": "internal error"})
		return
	}

	if res.Outcome == OutcomeBilled {
		c.JSON(http.StatusCreated, billedBody(res))
		return
	}
	c.JSON(http.StatusOK, gin.H{"skipped": true, "reason": res.Reason})
}

func billedBody(res Result) gin.H {
	return gin.H{
		"call": gin.H{
			"call_id":          res.Record.CallID,
			"account_id":       res.Record.AccountID,
			"duration_seconds": res.Record.DurationSeconds,
			"duration_minutes": res.Record.DurationMinutes,
			"summary":          res.Record.Summary,
			"status":           res.Record.Status,
		},
		"ledger": gin.H{
			"total_credits":     res.Balance.TotalCredits,
			"used_credits":      res.Balance.UsedCredits,
			"available_credits": res.Balance.AvailableCredits,
		},
		"alerts": gin.H{
			"low_balance":   res.Balance.LowBalance,
			"stop_workflow": res.Balance.StopWorkflow,
			"message":       res.Balance.Alert,
		},
	}
}

func readBody(c *gin.Context) ([]byte, error) {
	return io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
}
