package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"phishsim-server/internal/observability"
)

const sqlCreateInteraction = `
INSERT INTO interactions (campaign_id, email, action_type, occurred_at)
VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
RETURNING id, campaign_id, email, action_type, occurred_at
`

// CreateInteraction appends an interaction event unconditionally. Used for
// the initial "sent" event, which repeats on resends.
func (s *Store) CreateInteraction(ctx context.Context, campaignID int64, email, action string) (Interaction, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "campaign_id", Value: campaignID},
		observability.Field{Key: "email", Value: email},
		observability.Field{Key: "action_type", Value: action},
	)

	var interaction Interaction
	err := s.db.GetContext(ctx, &interaction, sqlCreateInteraction, campaignID, email, action)
	if err != nil {
		s.logger.Error(ctx, "failed to create interaction", err)
		return Interaction{}, fmt.Errorf("failed to create interaction: %w", err)
	}

	s.logger.Info(ctx, "interaction recorded")
	return interaction, nil
}

// The guard clause makes stage progression monotonic: the insert is skipped
// when any existing event for (campaign_id, email) already has a rank at or
// above the incoming action, so repeating an action or reporting a lower
// stage is a no-op. Two concurrent callbacks for the same action can both
// pass the NOT EXISTS check; the partial unique index
// uniq_interactions_stage arbitrates that race, and ON CONFLICT turns the
// loser into the same no-op path.
const sqlRecordInteractionAction = `
INSERT INTO interactions (campaign_id, email, action_type, occurred_at)
SELECT $1, $2, $3, CURRENT_TIMESTAMP
WHERE NOT EXISTS (
    SELECT 1 FROM interactions
    WHERE campaign_id = $1 AND email = $2
      AND CASE action_type
            WHEN 'sent' THEN 0
            WHEN 'opened' THEN 1
            WHEN 'clicked' THEN 2
            WHEN 'submitted' THEN 3
            WHEN 'failed' THEN 4
          END >= $4
)
ON CONFLICT (campaign_id, email, action_type)
    WHERE action_type IN ('opened', 'clicked', 'submitted')
    DO NOTHING
RETURNING id, campaign_id, email, action_type, occurred_at
`

// RecordInteractionAction appends a tracking event for (campaignID, email)
// only when it advances the target's stage. It returns the inserted event
// and true, or the zero Interaction and false when the event was a no-op.
func (s *Store) RecordInteractionAction(ctx context.Context, campaignID int64, email, action string) (Interaction, bool, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "campaign_id", Value: campaignID},
		observability.Field{Key: "email", Value: email},
		observability.Field{Key: "action_type", Value: action},
	)

	rank := ActionRank(action)
	if rank < 0 {
		return Interaction{}, false, fmt.Errorf("unknown interaction action %q", action)
	}

	var interaction Interaction
	err := s.db.GetContext(ctx, &interaction, sqlRecordInteractionAction, campaignID, email, action, rank)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Stage already at or past this action.
			return Interaction{}, false, nil
		}
		s.logger.Error(ctx, "failed to record interaction action", err)
		return Interaction{}, false, fmt.Errorf("failed to record interaction action: %w", err)
	}

	s.logger.Info(ctx, "interaction recorded")
	return interaction, true, nil
}

const sqlUpdateInteractionAction = `
UPDATE interactions
SET action_type = $2, occurred_at = CURRENT_TIMESTAMP
WHERE id = $1
RETURNING id, campaign_id, email, action_type, occurred_at
`

// UpdateInteractionAction rewrites a single event row in place. The delivery
// worker uses it to flip a "sent" event to "failed" after retries exhaust.
func (s *Store) UpdateInteractionAction(ctx context.Context, interactionID int64, action string) (Interaction, error) {
	var interaction Interaction
	err := s.db.GetContext(ctx, &interaction, sqlUpdateInteractionAction, interactionID, action)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Interaction{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to update interaction action", err)
		return Interaction{}, fmt.Errorf("failed to update interaction action: %w", err)
	}
	return interaction, nil
}

// ActionCounts holds per-action event counts for a campaign.
type ActionCounts struct {
	Sent      int `db:"sent"`
	Opened    int `db:"opened"`
	Clicked   int `db:"clicked"`
	Submitted int `db:"submitted"`
	Failed    int `db:"failed"`
}

const sqlGetCampaignActionCounts = `
SELECT
    COALESCE(COUNT(*) FILTER (WHERE action_type = 'sent'), 0)::int AS sent,
    COALESCE(COUNT(*) FILTER (WHERE action_type = 'opened'), 0)::int AS opened,
    COALESCE(COUNT(*) FILTER (WHERE action_type = 'clicked'), 0)::int AS clicked,
    COALESCE(COUNT(*) FILTER (WHERE action_type = 'submitted'), 0)::int AS submitted,
    COALESCE(COUNT(*) FILTER (WHERE action_type = 'failed'), 0)::int AS failed
FROM interactions
WHERE campaign_id = $1
`

// GetCampaignActionCounts counts events per action for a campaign
func (s *Store) GetCampaignActionCounts(ctx context.Context, campaignID int64) (ActionCounts, error) {
	var counts ActionCounts
	err := s.db.GetContext(ctx, &counts, sqlGetCampaignActionCounts, campaignID)
	if err != nil {
		s.logger.Error(ctx, "failed to get campaign action counts", err)
		return ActionCounts{}, fmt.Errorf("failed to get campaign action counts: %w", err)
	}
	return counts, nil
}

const sqlListInteractionsByCampaign = `
SELECT id, campaign_id, email, action_type, occurred_at
FROM interactions
WHERE campaign_id = $1
ORDER BY occurred_at, id
`

// ListInteractionsByCampaign retrieves the full event log of a campaign in
// chronological order
func (s *Store) ListInteractionsByCampaign(ctx context.Context, campaignID int64) ([]Interaction, error) {
	var interactions []Interaction
	err := s.db.SelectContext(ctx, &interactions, sqlListInteractionsByCampaign, campaignID)
	if err != nil {
		s.logger.Error(ctx, "failed to list interactions by campaign", err)
		return nil, fmt.Errorf("failed to list interactions by campaign: %w", err)
	}
	return interactions, nil
}
