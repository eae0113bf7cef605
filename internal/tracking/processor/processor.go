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
)

var (
	ErrInvalidToken     = errors.New("invalid tracking token")
	ErrTargetNotFound   = errors.New("target not found")
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrTemplateNotFound = errors.New("template not found")
)

// TrackingStore is the narrow store surface the tracking processor needs.
type TrackingStore interface {
	GetCampaignByID(ctx context.Context, campaignID int64) (store.Campaign, error)
	GetTargetByID(ctx context.Context, targetID int64) (store.Target, error)
	GetEmailTemplateByType(ctx context.Context, campaignType string) (store.EmailTemplate, error)
	RecordInteractionAction(ctx context.Context, campaignID int64, email, action string) (store.Interaction, bool, error)
}

// TrackingProcessor resolves tracking tokens from campaign emails and
// appends the corresponding interaction events. Callbacks arrive from mail
// clients and browsers, so callers are expected to fail soft on errors.
type TrackingProcessor struct {
	trackingStore TrackingStore
	codec         *token.Codec
	renderer      *email.Service
	logger        *observability.Logger
}

func New(trackingStore TrackingStore, codec *token.Codec, renderer *email.Service, logger *observability.Logger) TrackingProcessor {
	return TrackingProcessor{
		trackingStore: trackingStore,
		codec:         codec,
		renderer:      renderer,
		logger:        logger,
	}
}

// LandingPage is the rendered simulation page behind a campaign link.
type LandingPage struct {
	HTMLContent  string
	CampaignType string
	TargetEmail  string
}

// TrackOpen records an opened event for the token's target.
func (p *TrackingProcessor) TrackOpen(ctx context.Context, trackingToken string) error {
	return p.track(ctx, trackingToken, store.ActionOpened)
}

// TrackClick records a clicked event for the token's target.
func (p *TrackingProcessor) TrackClick(ctx context.Context, trackingToken string) error {
	return p.track(ctx, trackingToken, store.ActionClicked)
}

// TrackSubmit records a submitted event for the token's target. Submitted
// form field values never reach this processor; only the event is stored.
func (p *TrackingProcessor) TrackSubmit(ctx context.Context, trackingToken string) error {
	target, _, err := p.resolve(ctx, trackingToken)
	if err != nil {
		return err
	}
	if err := p.record(ctx, target, store.ActionSubmitted); err != nil {
		return err
	}

	p.logger.Info(observability.WithFields(ctx,
		observability.Field{Key: "campaign_id", Value: target.CampaignID},
		observability.Field{Key: "email", Value: target.Email},
	), "phishing form submission tracked, no credentials stored")
	return nil
}

// RenderLandingPage resolves the token, renders the campaign's template for
// the target and records a clicked event for direct page visits.
func (p *TrackingProcessor) RenderLandingPage(ctx context.Context, trackingToken string) (LandingPage, error) {
	target, parts, err := p.resolve(ctx, trackingToken)
	if err != nil {
		return LandingPage{}, err
	}

	campaign, err := p.trackingStore.GetCampaignByID(ctx, parts.CampaignID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LandingPage{}, ErrCampaignNotFound
		}
		return LandingPage{}, fmt.Errorf("failed to load campaign: %w", err)
	}

	template, err := p.trackingStore.GetEmailTemplateByType(ctx, campaign.Type)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LandingPage{}, ErrTemplateNotFound
		}
		return LandingPage{}, fmt.Errorf("failed to load template: %w", err)
	}

	rendered, err := p.renderer.Render(template, email.RenderParams{
		TargetName:   target.Name,
		TargetEmail:  target.Email,
		CampaignType: campaign.Type,
		Token:        trackingToken,
	})
	if err != nil {
		return LandingPage{}, fmt.Errorf("failed to render landing page: %w", err)
	}

	// A direct page visit implies the link was followed.
	if err := p.record(ctx, target, store.ActionClicked); err != nil {
		p.logger.InfoWithError(ctx, "failed to record landing page visit", err)
	}

	return LandingPage{
		HTMLContent:  rendered.HTMLContent,
		CampaignType: campaign.Type,
		TargetEmail:  target.Email,
	}, nil
}

func (p *TrackingProcessor) track(ctx context.Context, trackingToken, action string) error {
	target, _, err := p.resolve(ctx, trackingToken)
	if err != nil {
		return err
	}
	return p.record(ctx, target, action)
}

// resolve decodes the token and checks that the referenced target exists
// and still belongs to the token's campaign. A target row moved or deleted
// since minting invalidates the token.
func (p *TrackingProcessor) resolve(ctx context.Context, trackingToken string) (store.Target, token.Parts, error) {
	parts, err := p.codec.Parse(trackingToken)
	if err != nil {
		metrics.InvalidTrackingTokens.Inc()
		p.logger.Info(ctx, "rejected malformed tracking token")
		return store.Target{}, token.Parts{}, ErrInvalidToken
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "campaign_id", Value: parts.CampaignID},
		observability.Field{Key: "target_id", Value: parts.TargetID},
	)

	target, err := p.trackingStore.GetTargetByID(ctx, parts.TargetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.InvalidTrackingTokens.Inc()
			return store.Target{}, token.Parts{}, ErrTargetNotFound
		}
		return store.Target{}, token.Parts{}, fmt.Errorf("failed to load target: %w", err)
	}

	if target.CampaignID != parts.CampaignID {
		metrics.InvalidTrackingTokens.Inc()
		p.logger.Warn(ctx, "tracking token campaign does not match target")
		return store.Target{}, token.Parts{}, ErrInvalidToken
	}

	return target, parts, nil
}

func (p *TrackingProcessor) record(ctx context.Context, target store.Target, action string) error {
	_, advanced, err := p.trackingStore.RecordInteractionAction(ctx, target.CampaignID, target.Email, action)
	if err != nil {
		return fmt.Errorf("failed to record %s interaction: %w", action, err)
	}
	if advanced {
		metrics.InteractionsRecorded.WithLabelValues(action).Inc()
	}
	return nil
}
