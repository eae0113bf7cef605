package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateCampaignParams represents parameters for creating a campaign
type CreateCampaignParams struct {
	CompanyID int64
	Type      string
	StartDate time.Time
	EndDate   time.Time
}

const sqlCreateCampaign = `
INSERT INTO campaigns (company_id, type, status, start_date, end_date)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, company_id, type, status, start_date, end_date, created_at, updated_at
`

// CreateCampaign creates a new campaign in draft status
func (s *Store) CreateCampaign(ctx context.Context, params CreateCampaignParams) (Campaign, error) {
	var campaign Campaign
	err := s.db.GetContext(ctx, &campaign, sqlCreateCampaign,
		params.CompanyID,
		params.Type,
		CampaignStatusDraft,
		params.StartDate,
		params.EndDate)
	if err != nil {
		s.logger.Error(ctx, "failed to create campaign", err)
		return Campaign{}, fmt.Errorf("failed to create campaign: %w", err)
	}
	return campaign, nil
}

const sqlGetCampaignByID = `
SELECT id, company_id, type, status, start_date, end_date, created_at, updated_at
FROM campaigns
WHERE id = $1
`

// GetCampaignByID retrieves a campaign by ID
func (s *Store) GetCampaignByID(ctx context.Context, campaignID int64) (Campaign, error) {
	var campaign Campaign
	err := s.db.GetContext(ctx, &campaign, sqlGetCampaignByID, campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get campaign by id", err)
		return Campaign{}, fmt.Errorf("failed to get campaign by id: %w", err)
	}
	return campaign, nil
}

const sqlGetCampaignForCompany = `
SELECT id, company_id, type, status, start_date, end_date, created_at, updated_at
FROM campaigns
WHERE id = $1 AND company_id = $2
`

// GetCampaignForCompany retrieves a campaign by ID scoped to its owning company
func (s *Store) GetCampaignForCompany(ctx context.Context, campaignID, companyID int64) (Campaign, error) {
	var campaign Campaign
	err := s.db.GetContext(ctx, &campaign, sqlGetCampaignForCompany, campaignID, companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get campaign for company", err)
		return Campaign{}, fmt.Errorf("failed to get campaign for company: %w", err)
	}
	return campaign, nil
}

const sqlListCampaignsByCompany = `
SELECT id, company_id, type, status, start_date, end_date, created_at, updated_at
FROM campaigns
WHERE company_id = $1
ORDER BY created_at DESC
`

// ListCampaignsByCompany retrieves all campaigns owned by a company
func (s *Store) ListCampaignsByCompany(ctx context.Context, companyID int64) ([]Campaign, error) {
	var campaigns []Campaign
	err := s.db.SelectContext(ctx, &campaigns, sqlListCampaignsByCompany, companyID)
	if err != nil {
		s.logger.Error(ctx, "failed to list campaigns by company", err)
		return nil, fmt.Errorf("failed to list campaigns by company: %w", err)
	}
	return campaigns, nil
}

const sqlListPreviousCampaigns = `
SELECT id, company_id, type, status, start_date, end_date, created_at, updated_at
FROM campaigns
WHERE company_id = $1 AND id != $2 AND status != $3
ORDER BY created_at DESC
LIMIT $4
`

// ListPreviousCampaigns retrieves up to limit prior non-draft campaigns for
// the same company, newest first, excluding the given campaign.
func (s *Store) ListPreviousCampaigns(ctx context.Context, companyID, excludeCampaignID int64, limit int) ([]Campaign, error) {
	var campaigns []Campaign
	err := s.db.SelectContext(ctx, &campaigns, sqlListPreviousCampaigns,
		companyID, excludeCampaignID, CampaignStatusDraft, limit)
	if err != nil {
		s.logger.Error(ctx, "failed to list previous campaigns", err)
		return nil, fmt.Errorf("failed to list previous campaigns: %w", err)
	}
	return campaigns, nil
}

const sqlUpdateCampaignStatus = `
UPDATE campaigns
SET status = $2, updated_at = CURRENT_TIMESTAMP
WHERE id = $1
RETURNING id, company_id, type, status, start_date, end_date, created_at, updated_at
`

// UpdateCampaignStatus updates a campaign's status
func (s *Store) UpdateCampaignStatus(ctx context.Context, campaignID int64, status string) (Campaign, error) {
	var campaign Campaign
	err := s.db.GetContext(ctx, &campaign, sqlUpdateCampaignStatus, campaignID, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to update campaign status", err)
		return Campaign{}, fmt.Errorf("failed to update campaign status: %w", err)
	}
	return campaign, nil
}

const sqlUpdateCampaignDates = `
UPDATE campaigns
SET start_date = COALESCE($2, start_date),
    end_date = COALESCE($3, end_date),
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1
RETURNING id, company_id, type, status, start_date, end_date, created_at, updated_at
`

// UpdateCampaignDates updates a campaign's start/end dates
func (s *Store) UpdateCampaignDates(ctx context.Context, campaignID int64, startDate, endDate *time.Time) (Campaign, error) {
	var campaign Campaign
	err := s.db.GetContext(ctx, &campaign, sqlUpdateCampaignDates, campaignID, startDate, endDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to update campaign dates", err)
		return Campaign{}, fmt.Errorf("failed to update campaign dates: %w", err)
	}
	return campaign, nil
}

const sqlDeleteCampaign = `
DELETE FROM campaigns
WHERE id = $1 AND company_id = $2
`

// DeleteCampaign removes a campaign and, via FK cascade, its targets and
// interactions.
func (s *Store) DeleteCampaign(ctx context.Context, campaignID, companyID int64) error {
	res, err := s.db.ExecContext(ctx, sqlDeleteCampaign, campaignID, companyID)
	if err != nil {
		s.logger.Error(ctx, "failed to delete campaign", err)
		return fmt.Errorf("failed to delete campaign: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		s.logger.Error(ctx, "failed to get rows affected", err)
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
