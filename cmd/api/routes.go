package main

import (
	"database/sql"
	"net/http"
	"time"

	"voicecredit-platform/internal/auth"
	"voicecredit-platform/internal/httpapi"
	"voicecredit-platform/internal/payments"
	"voicecredit-platform/internal/rbac"
	"voicecredit-platform/internal/webhook"
	"voicecredit-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

type dependencies struct {
	authManager *auth.Manager
	db          *sql.DB
	webhooks    webhook.Handlers
	stripe      payments.Handler
	api         httpapi.Handlers
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d dependencies) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), d.db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Inbound call-event channels. Auth differs per channel: the primary
	// endpoint carries the shared secret, the other two are validated by
	// content only.
	r.POST("/webhooks/calls", d.webhooks.HandlePrimary)
	r.POST("/webhooks/provider/call-completed", d.webhooks.HandleProvider)
	r.POST("/webhooks/simple", d.webhooks.HandleSimple)

	// Stripe purchase crediting (signature-verified).
	r.POST("/webhooks/stripe", d.stripe.HandleStripe)

	// auth (public)
	authGroup := r.Group("/v1/auth")
	{
		authGroup.POST("/code", d.api.RequestCode)
		authGroup.POST("/login", d.api.Login)
		authGroup.POST("/refresh", d.api.Refresh)
	}

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(d.authManager))
	v1.Use(rbac.RequireAccount())
	{
		v1.GET("/me", d.api.Me)
		v1.GET("/balance", d.api.GetBalance)
		v1.GET("/calls", d.api.ListCalls)
		v1.GET("/usage/summary", d.api.UsageSummary)
		v1.GET("/purchases", d.api.ListPurchases)
		v1.GET("/purchases/summary", d.api.PurchaseSummary)

		// ADMIN routes
		admin := v1.Group("/admin")
		admin.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			admin.POST("/accounts", d.api.AdminCreateAccount)
			admin.GET("/accounts", d.api.AdminListAccounts)
			admin.POST("/accounts/:id/credits/grant", d.api.AdminGrantCredits)
			admin.PUT("/accounts/:id/credits/total", d.api.AdminSetTotalCredits)
			admin.PUT("/accounts/:id/agent", d.api.AdminBindAgent)
			admin.DELETE("/accounts/:id/agent", d.api.AdminUnbindAgent)
			admin.PUT("/accounts/:id/status", d.api.AdminSetStatus)
		}
	}
}
