package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voicecredit-platform/internal/accounts"
	"voicecredit-platform/internal/audit"
	"voicecredit-platform/internal/auth"
	"voicecredit-platform/internal/calls"
	"voicecredit-platform/internal/config"
	"voicecredit-platform/internal/httpapi"
	"voicecredit-platform/internal/ledger"
	"voicecredit-platform/internal/migrations"
	"voicecredit-platform/internal/payments"
	"voicecredit-platform/internal/reporting"
	"voicecredit-platform/internal/verify"
	"voicecredit-platform/internal/webhook"
	"voicecredit-platform/pkg/logger"
	"voicecredit-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Run(rootCtx, db); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Services
	accountsSvc := accounts.NewService(db)
	ledgerSvc := ledger.NewService(db)
	callRepo := calls.NewRepository(db)
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	verifySvc := verify.NewService(rdb)
	reportSvc := reporting.NewService(reporting.NewPostgresRepo(db))
	paymentsSvc := payments.NewService(db, ledgerSvc, cfg.Billing.CreditPriceCents)

	pipeline := webhook.NewPipeline(webhook.NewResolver(accountsSvc), callRepo, ledgerSvc)

	deps := dependencies{
		authManager: authManager,
		db:          db,
		webhooks: webhook.Handlers{
			Pipeline:          pipeline,
			SharedSecret:      cfg.Webhook.SharedSecret,
			BillableEventType: cfg.Webhook.BillableEventType,
		},
		stripe: payments.Handler{
			Service:       paymentsSvc,
			WebhookSecret: cfg.Billing.StripeWebhookSecret,
		},
		api: httpapi.Handlers{
			Auth:     authManager,
			Accounts: accountsSvc,
			Ledger:   ledgerSvc,
			Calls:    callRepo,
			Verify:   verifySvc,
			Payments: paymentsSvc,
			Reports:  reportSvc,
			Audit:    auditSvc,
		},
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
