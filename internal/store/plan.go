package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const sqlListPlans = `
SELECT id, name, price, max_targets, created_at, updated_at
FROM plans
ORDER BY price
`

// ListPlans retrieves all subscription plans, cheapest first.
func (s *Store) ListPlans(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	err := s.db.SelectContext(ctx, &plans, sqlListPlans)
	if err != nil {
		s.logger.Error(ctx, "failed to list plans", err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

const sqlGetPlanByID = `
SELECT id, name, price, max_targets, created_at, updated_at
FROM plans
WHERE id = $1
`

// GetPlanByID retrieves a plan by id.
func (s *Store) GetPlanByID(ctx context.Context, planID int64) (Plan, error) {
	var plan Plan
	err := s.db.GetContext(ctx, &plan, sqlGetPlanByID, planID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Plan{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get plan by id", err)
		return Plan{}, fmt.Errorf("failed to get plan by id: %w", err)
	}
	return plan, nil
}
