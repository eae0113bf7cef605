package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateTargetParams represents one target in a bulk insert
type CreateTargetParams struct {
	Name  string
	Email string
}

const sqlCreateTarget = `
INSERT INTO targets (campaign_id, name, email)
VALUES ($1, $2, $3)
RETURNING id, campaign_id, name, email, created_at
`

// CreateTargets bulk-inserts targets under a campaign inside a single
// transaction, so a partial batch never persists.
func (s *Store) CreateTargets(ctx context.Context, campaignID int64, params []CreateTargetParams) ([]Target, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.Error(ctx, "failed to begin targets transaction", err)
		return nil, fmt.Errorf("failed to begin targets transaction: %w", err)
	}
	defer tx.Rollback()

	targets := make([]Target, 0, len(params))
	for _, p := range params {
		var target Target
		if err := tx.GetContext(ctx, &target, sqlCreateTarget, campaignID, p.Name, p.Email); err != nil {
			s.logger.Error(ctx, "failed to create target", err)
			return nil, fmt.Errorf("failed to create target: %w", err)
		}
		targets = append(targets, target)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error(ctx, "failed to commit targets transaction", err)
		return nil, fmt.Errorf("failed to commit targets transaction: %w", err)
	}

	return targets, nil
}

const sqlGetTargetByID = `
SELECT id, campaign_id, name, email, created_at
FROM targets
WHERE id = $1
`

// GetTargetByID retrieves a target by ID
func (s *Store) GetTargetByID(ctx context.Context, targetID int64) (Target, error) {
	var target Target
	err := s.db.GetContext(ctx, &target, sqlGetTargetByID, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Target{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get target by id", err)
		return Target{}, fmt.Errorf("failed to get target by id: %w", err)
	}
	return target, nil
}

const sqlListTargetsByCampaign = `
SELECT id, campaign_id, name, email, created_at
FROM targets
WHERE campaign_id = $1
ORDER BY id
`

// ListTargetsByCampaign retrieves all targets of a campaign
func (s *Store) ListTargetsByCampaign(ctx context.Context, campaignID int64) ([]Target, error) {
	var targets []Target
	err := s.db.SelectContext(ctx, &targets, sqlListTargetsByCampaign, campaignID)
	if err != nil {
		s.logger.Error(ctx, "failed to list targets by campaign", err)
		return nil, fmt.Errorf("failed to list targets by campaign: %w", err)
	}
	return targets, nil
}

const sqlCountTargetsByCampaign = `
SELECT COUNT(*) FROM targets WHERE campaign_id = $1
`

// CountTargetsByCampaign counts the targets of a campaign
func (s *Store) CountTargetsByCampaign(ctx context.Context, campaignID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, sqlCountTargetsByCampaign, campaignID)
	if err != nil {
		s.logger.Error(ctx, "failed to count targets by campaign", err)
		return 0, fmt.Errorf("failed to count targets by campaign: %w", err)
	}
	return count, nil
}
