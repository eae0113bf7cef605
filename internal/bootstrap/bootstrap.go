package bootstrap

import (
	"context"
	"fmt"

	"phishsim-server/internal/config"
	"phishsim-server/internal/email"
	"phishsim-server/internal/observability"
	"phishsim-server/internal/store"
	"phishsim-server/internal/token"
	"phishsim-server/internal/workers"

	analyticsHandler "phishsim-server/internal/analytics/handler"
	analyticsProcessor "phishsim-server/internal/analytics/processor"
	authHandler "phishsim-server/internal/auth/handler"
	authProcessor "phishsim-server/internal/auth/processor"
	billingHandler "phishsim-server/internal/billing/handler"
	billingProcessor "phishsim-server/internal/billing/processor"
	campaignHandler "phishsim-server/internal/campaign/handler"
	campaignProcessor "phishsim-server/internal/campaign/processor"
	campaignEmailsHandler "phishsim-server/internal/campaignemails/handler"
	dispatchProcessor "phishsim-server/internal/campaignemails/processor"
	"phishsim-server/internal/clients/mail"
	trackingHandler "phishsim-server/internal/tracking/handler"
	trackingProcessor "phishsim-server/internal/tracking/processor"
	"phishsim-server/internal/workers/delivery"
)

// Dependencies holds all initialized application dependencies
type Dependencies struct {
	Store  store.Store
	Logger *observability.Logger

	AuthHandler           authHandler.Handler
	CampaignHandler       campaignHandler.Handler
	CampaignEmailsHandler campaignEmailsHandler.Handler
	TrackingHandler       trackingHandler.Handler
	AnalyticsHandler      analyticsHandler.Handler
	BillingHandler        billingHandler.Handler

	// DeliveryPool drains queued campaign emails in the background.
	DeliveryPool workers.WorkerPool
}

// Initialize sets up all application dependencies
func Initialize(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Logger: logger,
	}

	var err error
	deps.Store, err = store.New(cfg.Database.ConnectionString(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	mailClient, err := mail.NewResendClient(cfg.Services.ResendAPIKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create resend client: %w", err)
	}

	codec := token.NewCodec(cfg.Tracking.TokenTTL)
	emailService := email.NewService(cfg.Tracking.BaseURL)

	deliveryConfig := delivery.DefaultConfig()
	deliveryConfig.SendRatePerSec = int(cfg.WorkerPool.SendRatePerSec)
	deliveryProc := delivery.NewProcessor(&deps.Store, mailClient, cfg.Services.DefaultEmailSender, deliveryConfig, logger)
	deps.DeliveryPool = workers.NewWorkerPool(workers.WorkerPoolConfig{
		NumWorkers: cfg.WorkerPool.DeliveryWorkers,
		QueueSize:  cfg.WorkerPool.QueueSize,
	}, deliveryProc, logger)

	authProc := authProcessor.New(&deps.Store, cfg.Auth.JWTSecret, logger)
	deps.AuthHandler = authHandler.New(authProc, logger)

	campaignProc := campaignProcessor.New(&deps.Store, logger)
	deps.CampaignHandler = campaignHandler.New(campaignProc, logger)

	dispatchProc := dispatchProcessor.New(&deps.Store, deps.DeliveryPool, codec, emailService, logger)
	deps.CampaignEmailsHandler = campaignEmailsHandler.New(dispatchProc, logger)

	trackingProc := trackingProcessor.New(&deps.Store, codec, emailService, logger)
	deps.TrackingHandler = trackingHandler.New(trackingProc, cfg.Tracking.BaseURL, logger)

	analyticsProc := analyticsProcessor.New(&deps.Store, logger)
	deps.AnalyticsHandler = analyticsHandler.New(analyticsProc, logger)

	billingProc := billingProcessor.New(&deps.Store, billingProcessor.SimulatedGateway{}, cfg.Tracking.BaseURL, logger)
	deps.BillingHandler = billingHandler.New(billingProc, logger)

	return deps, nil
}

// Cleanup releases resources held by the dependencies.
func (d *Dependencies) Cleanup() {
	if db := d.Store.DB(); db != nil {
		_ = db.Close()
	}
}
