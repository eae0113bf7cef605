package delivery

import (
	"context"
	"fmt"
	"time"

	"phishsim-server/internal/metrics"
	"phishsim-server/internal/observability"
	"phishsim-server/internal/store"
	"phishsim-server/internal/workers"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// DeliveryStore defines the database operations required by the delivery
// processor.
type DeliveryStore interface {
	UpdateInteractionAction(ctx context.Context, interactionID int64, action string) (store.Interaction, error)
}

// Mailer sends a single rendered email.
type Mailer interface {
	SendEmail(ctx context.Context, from, to, subject, htmlContent string) (string, error)
}

// Config holds delivery retry and throttling settings.
type Config struct {
	// MaxAttempts is the total number of send attempts per job.
	MaxAttempts int

	// AttemptTimeout bounds each individual send attempt.
	AttemptTimeout time.Duration

	// SendRatePerSec throttles outbound sends across all workers.
	SendRatePerSec int
}

// DefaultConfig mirrors the delivery queue defaults: three attempts with a
// sixty second ceiling each.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		AttemptTimeout: 60 * time.Second,
		SendRatePerSec: 10,
	}
}

// Processor implements workers.JobProcessor for campaign email delivery.
// A job that exhausts all attempts has its interaction flipped to "failed"
// so analytics can count undeliverable targets.
type Processor struct {
	store   DeliveryStore
	mailer  Mailer
	limiter *rate.Limiter
	config  Config
	from    string
	logger  *observability.Logger
}

func NewProcessor(deliveryStore DeliveryStore, mailer Mailer, from string, config Config, logger *observability.Logger) *Processor {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = DefaultConfig().AttemptTimeout
	}
	if config.SendRatePerSec <= 0 {
		config.SendRatePerSec = DefaultConfig().SendRatePerSec
	}

	return &Processor{
		store:   deliveryStore,
		mailer:  mailer,
		limiter: rate.NewLimiter(rate.Limit(config.SendRatePerSec), config.SendRatePerSec),
		config:  config,
		from:    from,
		logger:  logger,
	}
}

// Name returns the processor name for logging and metrics.
func (p *Processor) Name() string {
	return "delivery"
}

// Process sends one campaign email, retrying with exponential backoff. The
// returned error is non-nil only after every attempt has failed.
func (p *Processor) Process(ctx context.Context, job workers.DeliveryJob) error {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "token", Value: job.Token},
	)

	attempt := 0
	send := func() error {
		attempt++
		if err := p.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, p.config.AttemptTimeout)
		defer cancel()

		_, err := p.mailer.SendEmail(attemptCtx, p.from, job.TargetEmail, job.Subject, job.HTMLContent)
		if err != nil {
			if attempt < p.config.MaxAttempts {
				metrics.DeliveryRetries.Inc()
			}
			return err
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(p.config.MaxAttempts-1)),
		ctx,
	)

	if err := backoff.Retry(send, policy); err != nil {
		p.logger.Error(ctx, fmt.Sprintf("Delivery failed permanently after %d attempts", attempt), err)
		metrics.EmailsFailed.Inc()
		p.markFailed(ctx, job.InteractionID)
		return fmt.Errorf("delivery failed after %d attempts: %w", attempt, err)
	}

	metrics.EmailsSent.Inc()
	p.logger.Info(ctx, "Campaign email delivered")
	return nil
}

func (p *Processor) markFailed(ctx context.Context, interactionID int64) {
	// Best effort: the delivery failure is already logged and counted.
	if _, err := p.store.UpdateInteractionAction(ctx, interactionID, store.ActionFailed); err != nil {
		p.logger.Error(ctx, "Failed to mark interaction as failed", err)
	}
}
