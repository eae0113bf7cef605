package processor

import (
	"context"
	"errors"
	"fmt"

	"phishsim-server/internal/email"
	"phishsim-server/internal/metrics"
	"phishsim-server/internal/observability"
	"phishsim-server/internal/store"
	"phishsim-server/internal/token"
	"phishsim-server/internal/workers"
)

var (
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrCampaignNotActive = errors.New("campaign is not active")
	ErrNoTargets         = errors.New("campaign has no targets")
	ErrTemplateNotFound  = errors.New("email template not found")
	ErrTargetNotFound    = errors.New("target not found")
)

// DispatchStore defines the database operations required by DispatchProcessor.
type DispatchStore interface {
	GetCampaignForCompany(ctx context.Context, campaignID, companyID int64) (store.Campaign, error)
	ListTargetsByCampaign(ctx context.Context, campaignID int64) ([]store.Target, error)
	GetTargetByID(ctx context.Context, targetID int64) (store.Target, error)
	GetEmailTemplateByType(ctx context.Context, campaignType string) (store.EmailTemplate, error)
	CreateInteraction(ctx context.Context, campaignID int64, email, action string) (store.Interaction, error)
	UpdateCampaignStatus(ctx context.Context, campaignID int64, status string) (store.Campaign, error)
}

// JobQueue accepts rendered emails for asynchronous delivery.
type JobQueue interface {
	Submit(ctx context.Context, job workers.DeliveryJob) error
}

// DispatchProcessor fans a campaign out into per-target delivery jobs. Each
// target gets a freshly minted token, a personalized rendering and a "sent"
// interaction before its job is enqueued, so a target that fails rendering
// leaves no trace in the event log.
type DispatchProcessor struct {
	store    DispatchStore
	queue    JobQueue
	codec    *token.Codec
	renderer *email.Service
	logger   *observability.Logger
}

func New(dispatchStore DispatchStore, queue JobQueue, codec *token.Codec, renderer *email.Service, logger *observability.Logger) DispatchProcessor {
	return DispatchProcessor{
		store:    dispatchStore,
		queue:    queue,
		codec:    codec,
		renderer: renderer,
		logger:   logger,
	}
}

// TargetError describes one target that could not be dispatched.
type TargetError struct {
	TargetEmail string `json:"target_email"`
	Error       string `json:"error"`
}

// DispatchResult summarizes a campaign dispatch.
type DispatchResult struct {
	Success int           `json:"success"`
	Failed  int           `json:"failed"`
	Errors  []TargetError `json:"errors"`
}

// SendCampaignEmails queues one delivery job per target of an active
// campaign. Per-target failures are collected in the result rather than
// aborting the loop, and the campaign moves to "sent" once the fan-out
// completes.
func (p *DispatchProcessor) SendCampaignEmails(ctx context.Context, campaignID, companyID int64) (DispatchResult, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "campaign_id", Value: campaignID},
	)

	campaign, err := p.store.GetCampaignForCompany(ctx, campaignID, companyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return DispatchResult{}, ErrCampaignNotFound
		}
		return DispatchResult{}, err
	}
	if campaign.Status != store.CampaignStatusActive {
		return DispatchResult{}, ErrCampaignNotActive
	}

	targets, err := p.store.ListTargetsByCampaign(ctx, campaignID)
	if err != nil {
		return DispatchResult{}, err
	}
	if len(targets) == 0 {
		return DispatchResult{}, ErrNoTargets
	}

	template, err := p.store.GetEmailTemplateByType(ctx, campaign.Type)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return DispatchResult{}, ErrTemplateNotFound
		}
		return DispatchResult{}, err
	}

	result := DispatchResult{Errors: []TargetError{}}
	for _, target := range targets {
		if err := p.dispatchTarget(ctx, campaign, target, template); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, TargetError{
				TargetEmail: target.Email,
				Error:       err.Error(),
			})
			p.logger.Error(ctx, fmt.Sprintf("Failed to dispatch target %s", target.Email), err)
			continue
		}
		result.Success++
	}

	if _, err := p.store.UpdateCampaignStatus(ctx, campaignID, store.CampaignStatusSent); err != nil {
		p.logger.Error(ctx, "failed to update campaign status after dispatch", err)
		return result, err
	}

	p.logger.Info(ctx, fmt.Sprintf("Campaign dispatch queued: %d succeeded, %d failed", result.Success, result.Failed))
	return result, nil
}

// ResendEmail queues a fresh delivery job for a single target of the
// campaign. A new token is minted, so the original links stay valid too.
func (p *DispatchProcessor) ResendEmail(ctx context.Context, campaignID, companyID, targetID int64) error {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "campaign_id", Value: campaignID},
		observability.Field{Key: "target_id", Value: targetID},
	)

	campaign, err := p.store.GetCampaignForCompany(ctx, campaignID, companyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCampaignNotFound
		}
		return err
	}

	target, err := p.store.GetTargetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTargetNotFound
		}
		return err
	}
	if target.CampaignID != campaign.ID {
		return ErrTargetNotFound
	}

	template, err := p.store.GetEmailTemplateByType(ctx, campaign.Type)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}

	if err := p.dispatchTarget(ctx, campaign, target, template); err != nil {
		return err
	}

	p.logger.Info(ctx, "email queued for resending")
	return nil
}

// CancelCampaignEmails marks the campaign cancelled. Jobs already picked up
// by workers still finish; newly submitted ones are prevented by the status.
func (p *DispatchProcessor) CancelCampaignEmails(ctx context.Context, campaignID, companyID int64) (store.Campaign, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "campaign_id", Value: campaignID},
	)

	campaign, err := p.store.GetCampaignForCompany(ctx, campaignID, companyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Campaign{}, ErrCampaignNotFound
		}
		return store.Campaign{}, err
	}

	updated, err := p.store.UpdateCampaignStatus(ctx, campaign.ID, store.CampaignStatusCancelled)
	if err != nil {
		p.logger.Error(ctx, "failed to cancel campaign emails", err)
		return store.Campaign{}, err
	}

	p.logger.Info(ctx, "campaign emails cancelled")
	return updated, nil
}

func (p *DispatchProcessor) dispatchTarget(ctx context.Context, campaign store.Campaign, target store.Target, template store.EmailTemplate) error {
	trackingToken, err := p.codec.Mint(campaign.ID, target.ID)
	if err != nil {
		return err
	}

	rendered, err := p.renderer.Render(template, email.RenderParams{
		TargetName:   target.Name,
		TargetEmail:  target.Email,
		CampaignType: campaign.Type,
		Token:        trackingToken,
	})
	if err != nil {
		return err
	}

	interaction, err := p.store.CreateInteraction(ctx, campaign.ID, target.Email, store.ActionSent)
	if err != nil {
		return err
	}

	job := workers.DeliveryJob{
		InteractionID: interaction.ID,
		CampaignID:    campaign.ID,
		TargetID:      target.ID,
		TargetName:    target.Name,
		TargetEmail:   target.Email,
		Subject:       rendered.Subject,
		HTMLContent:   rendered.HTMLContent,
		Token:         trackingToken,
	}
	if err := p.queue.Submit(ctx, job); err != nil {
		return err
	}

	metrics.EmailsQueued.Inc()
	p.logger.Info(observability.WithFields(ctx,
		observability.Field{Key: "target_email", Value: target.Email},
		observability.Field{Key: "token", Value: trackingToken},
	), "email queued for target")
	return nil
}
