package payments

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"voicecredit-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v81"
	stripeWebhook "github.com/stripe/stripe-go/v81/webhook"
)

const maxPayloadBytes = 64 << 10

// Handler is the Stripe webhook endpoint. Signature verification happens
// before the payload is trusted; everything after a valid signature answers
// 200 unless our own store faults.
type Handler struct {
	Service       *Service
	WebhookSecret string
}

func (h Handler) HandleStripe(c *gin.Context) {
	log := logger.FromGin(c)

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err != nil || len(payload) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "empty body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	event, err := stripeWebhook.ConstructEventWithOptions(payload, signature, h.WebhookSecret, stripeWebhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		log.Warn("stripe signature verification failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	accountID := strings.TrimSpace(event.GetObjectValue("client_reference_id"))
	status := strings.TrimSpace(event.GetObjectValue("status"))
	sessionID := strings.TrimSpace(event.GetObjectValue("id"))
	amountCents, parseErr := strconv.ParseInt(strings.TrimSpace(event.GetObjectValue("amount_total")), 10, 64)
	currency := strings.ToLower(strings.TrimSpace(event.GetObjectValue("currency")))

	if status != "complete" || accountID == "" || parseErr != nil || amountCents <= 0 {
		// Signed but not actionable; acknowledge so Stripe stops retrying.
		log.Warn("stripe checkout event skipped",
			"event_id", event.ID, "status", status, "account_id", accountID)
		c.JSON(http.StatusOK, gin.H{"received": true, "skipped": true})
		return
	}

	bal, credits, err := h.Service.RecordCheckout(c.Request.Context(), event.ID, sessionID, accountID, amountCents, currency)
	if err != nil {
		if errors.Is(err, ErrEventProcessed) {
			c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
			return
		}
		if errors.Is(err, ErrInvalidArgument) {
			c.JSON(http.StatusOK, gin.H{"received": true, "skipped": true})
			return
		}
		log.Error("stripe checkout processing failed", "err", err, "event_id", event.ID)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	log.Info("credits purchased",
		"account_id", accountID, "credits", credits, "amount_cents", amountCents, "currency", currency)
	c.JSON(http.StatusOK, gin.H{
		"received":          true,
		"credits_granted":   credits,
		"available_credits": bal.AvailableCredits,
	})
}
