package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"phishsim-server/internal/observability"
	"phishsim-server/internal/store"
)

var (
	ErrCampaignNotFound        = errors.New("campaign not found")
	ErrInvalidCampaignType     = errors.New("invalid campaign type")
	ErrInvalidDateRange        = errors.New("invalid date range")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrCampaignNotEditable     = errors.New("campaign is not editable")
	ErrTargetLimitExceeded     = errors.New("target limit exceeded")
)

// CampaignStore defines the database operations required by CampaignProcessor.
type CampaignStore interface {
	CreateCampaign(ctx context.Context, params store.CreateCampaignParams) (store.Campaign, error)
	GetCampaignForCompany(ctx context.Context, campaignID, companyID int64) (store.Campaign, error)
	ListCampaignsByCompany(ctx context.Context, companyID int64) ([]store.Campaign, error)
	UpdateCampaignStatus(ctx context.Context, campaignID int64, status string) (store.Campaign, error)
	UpdateCampaignDates(ctx context.Context, campaignID int64, startDate, endDate *time.Time) (store.Campaign, error)
	DeleteCampaign(ctx context.Context, campaignID, companyID int64) error
	CreateTargets(ctx context.Context, campaignID int64, params []store.CreateTargetParams) ([]store.Target, error)
	ListTargetsByCampaign(ctx context.Context, campaignID int64) ([]store.Target, error)
	CountTargetsByCampaign(ctx context.Context, campaignID int64) (int, error)
	GetCompanyByID(ctx context.Context, companyID int64) (store.Company, error)
	GetPlanByID(ctx context.Context, planID int64) (store.Plan, error)
	ListEmailTemplates(ctx context.Context) ([]store.EmailTemplate, error)
}

type CampaignProcessor struct {
	store  CampaignStore
	logger *observability.Logger
}

func New(campaignStore CampaignStore, logger *observability.Logger) CampaignProcessor {
	return CampaignProcessor{
		store:  campaignStore,
		logger: logger,
	}
}

// CreateParams holds the validated inputs for creating a campaign.
type CreateParams struct {
	CompanyID int64
	Type      string
	StartDate time.Time
	EndDate   time.Time
}

// Create validates the type and date range and persists a new draft campaign.
func (p *CampaignProcessor) Create(ctx context.Context, params CreateParams) (store.Campaign, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "company_id", Value: params.CompanyID},
		observability.Field{Key: "campaign_type", Value: params.Type},
	)

	if !store.IsValidCampaignType(params.Type) {
		return store.Campaign{}, ErrInvalidCampaignType
	}
	if !params.StartDate.After(time.Now()) {
		return store.Campaign{}, ErrInvalidDateRange
	}
	if !params.EndDate.After(params.StartDate) {
		return store.Campaign{}, ErrInvalidDateRange
	}

	campaign, err := p.store.CreateCampaign(ctx, store.CreateCampaignParams{
		CompanyID: params.CompanyID,
		Type:      params.Type,
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
	})
	if err != nil {
		p.logger.Error(ctx, "failed to create campaign", err)
		return store.Campaign{}, err
	}

	p.logger.Info(ctx, "campaign created")
	return campaign, nil
}

// Get returns a campaign owned by the company.
func (p *CampaignProcessor) Get(ctx context.Context, campaignID, companyID int64) (store.Campaign, error) {
	campaign, err := p.store.GetCampaignForCompany(ctx, campaignID, companyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Campaign{}, ErrCampaignNotFound
		}
		return store.Campaign{}, err
	}
	return campaign, nil
}

// Details is a campaign together with its enrolled targets.
type Details struct {
	Campaign    store.Campaign `json:"campaign"`
	Targets     []store.Target `json:"targets"`
	TargetCount int            `json:"target_count"`
}

// GetDetails returns a campaign together with its targets.
func (p *CampaignProcessor) GetDetails(ctx context.Context, campaignID, companyID int64) (Details, error) {
	campaign, err := p.Get(ctx, campaignID, companyID)
	if err != nil {
		return Details{}, err
	}

	targets, err := p.store.ListTargetsByCampaign(ctx, campaignID)
	if err != nil {
		return Details{}, err
	}

	return Details{
		Campaign:    campaign,
		Targets:     targets,
		TargetCount: len(targets),
	}, nil
}

// List returns all campaigns owned by the company, newest first.
func (p *CampaignProcessor) List(ctx context.Context, companyID int64) ([]store.Campaign, error) {
	return p.store.ListCampaignsByCompany(ctx, companyID)
}

// UpdateParams holds the optional fields of a campaign update.
type UpdateParams struct {
	StartDate *time.Time
	EndDate   *time.Time
}

// Update modifies the dates of a draft campaign. Campaigns past the draft
// stage are locked so emails already sent always refer to the configuration
// they were sent under.
func (p *CampaignProcessor) Update(ctx context.Context, campaignID, companyID int64, params UpdateParams) (store.Campaign, error) {
	campaign, err := p.Get(ctx, campaignID, companyID)
	if err != nil {
		return store.Campaign{}, err
	}
	if campaign.Status != store.CampaignStatusDraft {
		return store.Campaign{}, ErrCampaignNotEditable
	}

	start := campaign.StartDate
	if params.StartDate != nil {
		start = *params.StartDate
	}
	end := campaign.EndDate
	if params.EndDate != nil {
		end = *params.EndDate
	}
	if !end.After(start) {
		return store.Campaign{}, ErrInvalidDateRange
	}

	updated, err := p.store.UpdateCampaignDates(ctx, campaignID, params.StartDate, params.EndDate)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Campaign{}, ErrCampaignNotFound
		}
		p.logger.Error(ctx, "failed to update campaign", err)
		return store.Campaign{}, err
	}
	return updated, nil
}

// Delete removes a campaign owned by the company.
func (p *CampaignProcessor) Delete(ctx context.Context, campaignID, companyID int64) error {
	err := p.store.DeleteCampaign(ctx, campaignID, companyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCampaignNotFound
		}
		p.logger.Error(ctx, "failed to delete campaign", err)
		return err
	}
	return nil
}

// Launch transitions a draft campaign to active.
func (p *CampaignProcessor) Launch(ctx context.Context, campaignID, companyID int64) (store.Campaign, error) {
	return p.transition(ctx, campaignID, companyID, store.CampaignStatusActive, store.CampaignStatusDraft)
}

// Pause transitions an active campaign to paused.
func (p *CampaignProcessor) Pause(ctx context.Context, campaignID, companyID int64) (store.Campaign, error) {
	return p.transition(ctx, campaignID, companyID, store.CampaignStatusPaused, store.CampaignStatusActive)
}

// Resume transitions a paused campaign back to active.
func (p *CampaignProcessor) Resume(ctx context.Context, campaignID, companyID int64) (store.Campaign, error) {
	return p.transition(ctx, campaignID, companyID, store.CampaignStatusActive, store.CampaignStatusPaused)
}

// Stop transitions a campaign to stopped from any state.
func (p *CampaignProcessor) Stop(ctx context.Context, campaignID, companyID int64) (store.Campaign, error) {
	return p.transition(ctx, campaignID, companyID, store.CampaignStatusStopped)
}

func (p *CampaignProcessor) transition(ctx context.Context, campaignID, companyID int64, to string, from ...string) (store.Campaign, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "campaign_id", Value: campaignID},
		observability.Field{Key: "target_status", Value: to},
	)

	campaign, err := p.Get(ctx, campaignID, companyID)
	if err != nil {
		return store.Campaign{}, err
	}

	if len(from) > 0 {
		allowed := false
		for _, status := range from {
			if campaign.Status == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return store.Campaign{}, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, campaign.Status, to)
		}
	}

	updated, err := p.store.UpdateCampaignStatus(ctx, campaignID, to)
	if err != nil {
		p.logger.Error(ctx, "failed to update campaign status", err)
		return store.Campaign{}, err
	}

	p.logger.Info(ctx, "campaign status updated")
	return updated, nil
}

// TargetParams is one employee to enroll in a campaign.
type TargetParams struct {
	Name  string
	Email string
}

// AddTargets enrolls employees into a draft campaign. The total target count
// is capped by the company's plan when one is assigned.
func (p *CampaignProcessor) AddTargets(ctx context.Context, campaignID, companyID int64, targets []TargetParams) ([]store.Target, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "campaign_id", Value: campaignID},
		observability.Field{Key: "target_count", Value: len(targets)},
	)

	campaign, err := p.Get(ctx, campaignID, companyID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != store.CampaignStatusDraft {
		return nil, ErrCampaignNotEditable
	}

	if err := p.checkTargetLimit(ctx, campaignID, companyID, len(targets)); err != nil {
		return nil, err
	}

	params := make([]store.CreateTargetParams, 0, len(targets))
	for _, t := range targets {
		params = append(params, store.CreateTargetParams{Name: t.Name, Email: t.Email})
	}

	created, err := p.store.CreateTargets(ctx, campaignID, params)
	if err != nil {
		p.logger.Error(ctx, "failed to add targets", err)
		return nil, err
	}

	p.logger.Info(ctx, "targets added")
	return created, nil
}

// ListTemplates returns all email templates available for campaigns.
func (p *CampaignProcessor) ListTemplates(ctx context.Context) ([]store.EmailTemplate, error) {
	return p.store.ListEmailTemplates(ctx)
}

func (p *CampaignProcessor) checkTargetLimit(ctx context.Context, campaignID, companyID int64, adding int) error {
	company, err := p.store.GetCompanyByID(ctx, companyID)
	if err != nil {
		return err
	}
	if company.PlanID == nil {
		return nil
	}

	plan, err := p.store.GetPlanByID(ctx, *company.PlanID)
	if err != nil {
		return err
	}
	if plan.MaxTargets <= 0 {
		return nil
	}

	existing, err := p.store.CountTargetsByCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	if existing+adding > plan.MaxTargets {
		return fmt.Errorf("%w: plan allows %d targets", ErrTargetLimitExceeded, plan.MaxTargets)
	}
	return nil
}
