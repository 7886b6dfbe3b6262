package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/Dhoini/coach-billing/internal/api/grpc"
	"github.com/Dhoini/coach-billing/internal/api/rest"
	"github.com/Dhoini/coach-billing/internal/api/rest/handlers"
	"github.com/Dhoini/coach-billing/internal/api/rest/middleware"
	"github.com/Dhoini/coach-billing/internal/db"
	"github.com/Dhoini/coach-billing/internal/domain"
	stripeint "github.com/Dhoini/coach-billing/internal/integration/stripe"
	"github.com/Dhoini/coach-billing/internal/metrics"
	"github.com/Dhoini/coach-billing/internal/repository"
	"github.com/Dhoini/coach-billing/internal/repository/postgres"
	"github.com/Dhoini/coach-billing/internal/service"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP webhook/API server and the gRPC health server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if missing := cfg.MissingWebhookSecrets(); len(missing) > 0 {
		// Сервер стартует: вебхук сам ответит 500 с перечнем переменных
		log.Warnw("Webhook configuration incomplete", "missing", missing)
	}
	if missing := cfg.MissingServeSecrets(); len(missing) > 0 {
		return &domain.ConfigError{Missing: missing}
	}

	registry := metrics.NewRegistry()
	billingMetrics := metrics.NewBillingMetrics(registry, log)

	in, err := connectStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := in.connectProducer(ctx, cfg); err != nil {
		log.Warnw("Kafka disabled", "error", err)
	}

	// Хранилища
	subs := repository.NewCachedSubscriptionRepository(
		postgres.NewSubscriptionRepository(in.pool, log), in.cache, log)
	settings := repository.NewCachedSettingsRepository(db.NewSettingsStore(in.catalog), in.cache, log)
	plans := db.NewPlanStore(in.catalog)
	details := postgres.NewDetailsRepository(in.pool)

	// Сервисы
	var emails service.CustomerEmailLookup
	if cfg.Stripe.SecretKey != "" {
		emails = stripeint.NewClient(cfg.Stripe.SecretKey, log.Named("stripe"))
	}
	reconciler := service.NewReconciliationService(service.ReconciliationDeps{
		Subscriptions: subs,
		Customers:     postgres.NewCustomerRepository(in.pool, log),
		Plans:         plans,
		Details:       details,
		Audit:         postgres.NewAuditRepository(in.pool, log),
		Events:        in.producer,
		Emails:        emails,
	}, log)
	webhookSvc := service.NewWebhookService(reconciler, billingMetrics, log)
	accessSvc := service.NewAccessService(subs, plans, settings, details, billingMetrics, log)
	trialSvc := service.NewTrialService(subs, settings, in.producer, log)
	settingsSvc := service.NewSettingsService(settings, log)

	// HTTP
	auth := middleware.NewJWTMiddleware(cfg, log, &middleware.DefaultTokenValidator{Secret: []byte(cfg.Auth.JWTSecret)})
	health := map[string]handlers.Pinger{"postgres": in.pool.Ping}
	if in.redis != nil {
		health["redis"] = func(ctx context.Context) error { return in.redis.Ping(ctx).Err() }
	}
	router := rest.SetupRouter(rest.RouterDeps{
		Config:   cfg,
		Registry: registry,
		Auth:     auth,
		Webhook:  handlers.NewWebhookHandler(cfg, webhookSvc, billingMetrics, log.Named("webhook")),
		Access:   handlers.NewAccessHandler(accessSvc, trialSvc, log),
		Settings: handlers.NewSettingsHandler(settingsSvc, log),
		Health:   health,
	}, log)
	httpServer := rest.NewServer(router, cfg, log)
	grpcServer := grpc.NewServer(cfg.GRPC.Port, log.Named("grpc"))

	errCh := make(chan error, 2)
	go func() { errCh <- httpServer.Start() }()
	go func() { errCh <- grpcServer.Start() }()
	grpcServer.SetServing(true)

	select {
	case <-ctx.Done():
		log.Infow("Shutdown signal received")
	case err = <-errCh:
		if err != nil {
			log.Errorw("Server error", "error", err)
		}
	}

	grpcServer.SetServing(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		log.Errorw("Server forced to shutdown", "error", serr)
	}
	grpcServer.Stop()

	log.Infow("Server stopped gracefully")
	return err
}
