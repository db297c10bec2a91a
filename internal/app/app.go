package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xavierca1/quote-payments/internal/config"
	"github.com/xavierca1/quote-payments/internal/infra/database"
	"github.com/xavierca1/quote-payments/internal/infra/http/handlers"
	"github.com/xavierca1/quote-payments/internal/infra/http/middleware"
	"github.com/xavierca1/quote-payments/internal/infra/http/router"
	"github.com/xavierca1/quote-payments/internal/infra/integration/analytics"
	"github.com/xavierca1/quote-payments/internal/infra/integration/stripe"
	"github.com/xavierca1/quote-payments/internal/infra/mail"
	"github.com/xavierca1/quote-payments/internal/infra/queue"
	"github.com/xavierca1/quote-payments/internal/infra/storage"
	"github.com/xavierca1/quote-payments/internal/infra/tracking"
	"github.com/xavierca1/quote-payments/internal/infra/worker"
	"github.com/xavierca1/quote-payments/internal/logger"
	"github.com/xavierca1/quote-payments/internal/usecase"
)

const Version = "1.0.0"

// Run wires every component from cfg and serves until SIGINT/SIGTERM.
func Run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	quoteRepo := database.NewQuoteRepository(db)
	orderRepo := database.NewOrderRepository(db)
	reminderRepo := database.NewCartReminderRepository(db)

	gateway := stripe.NewClient(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, nil)

	dispatcher, err := mail.NewDispatcher(mail.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		User:     cfg.Mail.User,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		Staff:    cfg.Mail.StaffEmails,
	})
	if err != nil {
		return fmt.Errorf("build mail dispatcher: %w", err)
	}

	sink, rabbit, analyticsWorker := analyticsSink(cfg)
	if rabbit != nil {
		defer rabbit.Close()
	}
	tracker := tracking.NewTracker(sink, cfg.Analytics.Buffer)
	tracker.Start(ctx)
	go logTrackerErrors(tracker.Errors())
	if analyticsWorker != nil {
		go func() {
			if err := analyticsWorker.Start(ctx, queue.QueueName); err != nil {
				logger.Errorw("analytics worker stopped", "error", err)
			}
		}()
	}

	var documents usecase.DocumentStore
	if cfg.Documents.Bucket != "" {
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:      cfg.Documents.Bucket,
			Region:      cfg.Documents.Region,
			Endpoint:    cfg.Documents.Endpoint,
			AccessKeyID: cfg.Documents.AccessKeyID,
			SecretKey:   cfg.Documents.SecretKey,
		})
		if err != nil {
			return fmt.Errorf("build document store: %w", err)
		}
		documents = store
	} else {
		logger.Warn("DOCUMENTS_BUCKET not set; document uploads are disabled")
	}

	if cfg.Backfill.RunSecret == "" {
		logger.Warn("BACKFILL_RUN_SECRET not set; the backfill endpoint will refuse every run")
	}

	backfillUC := usecase.NewBackfillOrderAmountsUseCase(orderRepo, gateway, cfg.Backfill.RunSecret)

	var healthRabbit handlers.HealthChecker
	if rabbit != nil {
		healthRabbit = rabbit
	}

	rt := &router.Router{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TokenAuth:      middleware.NewTokenAuth(cfg.Server.JWTSecret),
		Quotes: handlers.NewQuoteHandler(
			usecase.NewCreateQuoteUseCase(quoteRepo, dispatcher, tracker, cfg.Server.PublicOrigin, cfg.QuoteTTL),
			usecase.NewGetQuoteUseCase(quoteRepo),
			usecase.NewSendPaymentLinkUseCase(quoteRepo, dispatcher, cfg.Server.PublicOrigin),
		),
		Checkout: handlers.NewCheckoutHandler(usecase.NewCreatePaymentIntentUseCase(quoteRepo, gateway, tracker)),
		Webhooks: handlers.NewWebhookHandler(usecase.NewProcessPaymentEventUseCase(quoteRepo, orderRepo, gateway, dispatcher, tracker)),
		Admin:    handlers.NewAdminHandler(backfillUC),
		Cart:     handlers.NewCartHandler(usecase.NewSendCartReminderUseCase(reminderRepo, dispatcher, tracker)),
		Orders:   handlers.NewOrderHandler(usecase.NewOrderMaintenanceUseCase(orderRepo, documents)),
		Health:   handlers.NewHealthHandler(db, healthRabbit, gateway, Version),
	}

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           rt.HandleRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var backfillWorker *worker.BackfillWorker
	if cfg.Backfill.Interval > 0 {
		backfillWorker = worker.NewBackfillWorker(backfillUC, cfg.Backfill.Interval)
		backfillWorker.Start(ctx)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Infow("starting server", "addr", cfg.Server.ListenAddr, "version", Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
		logger.Info("shutdown server")
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("error shutdown server", "error", err)
	}

	if backfillWorker != nil {
		backfillWorker.Stop()
	}
	tracker.Stop()
	cancel()

	logger.Info("server stopped")
	return nil
}

// analyticsSink picks where tracked events go: through RabbitMQ when a broker
// is configured, straight to the collector otherwise, or nowhere without a key.
func analyticsSink(cfg *config.Config) (tracking.Sink, *queue.RabbitMQ, *queue.Worker) {
	if cfg.Analytics.Key == "" {
		logger.Warn("ANALYTICS_KEY not set; analytics events are discarded")
		return tracking.NopSink{}, nil, nil
	}

	collector := analytics.NewClient(cfg.Analytics.Host, cfg.Analytics.Key, &http.Client{Timeout: 10 * time.Second})
	if cfg.Analytics.RabbitMQURL == "" {
		return collector, nil, nil
	}

	rabbit, err := queue.NewRabbitMQ(cfg.Analytics.RabbitMQURL)
	if err != nil {
		logger.Errorw("rabbitmq unavailable; sending analytics directly", "error", err)
		return collector, nil, nil
	}
	return queue.NewProducer(rabbit.Ch), rabbit, queue.NewWorker(rabbit.Ch, collector)
}

func logTrackerErrors(errs <-chan error) {
	for err := range errs {
		logger.Warnw("analytics delivery failed", "error", err)
	}
}
