package config

import "testing"

func validLocal() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "voicecredit"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Webhook.BillableEventType != "end-of-call-report" {
		t.Fatalf("expected billable event type default, got %q", c.Webhook.BillableEventType)
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		t.Fatalf("expected token ttl defaults, got %v / %v", c.Auth.AccessTokenTTL, c.Auth.RefreshTokenTTL)
	}
}

func TestValidate_ProductionRequiresWebhookSecret(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.DB.SSLMode = "require"
	c.Auth.JWTIssuer = "voicecredit"
	c.Auth.JWTAudience = "voicecredit-api"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without WEBHOOK_SHARED_SECRET")
	}

	c.Webhook.SharedSecret = "hook-secret"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error with secret set, got %v", err)
	}
}

func TestValidate_StripeRequiresCreditPrice(t *testing.T) {
	c := validLocal()
	c.Billing.StripeWebhookSecret = "whsec_x"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error when Stripe is configured without CREDIT_PRICE_CENTS")
	}

	c = validLocal()
	c.Billing.StripeWebhookSecret = "whsec_x"
	c.Billing.CreditPriceCents = 50
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
