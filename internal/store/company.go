package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"phishsim-server/internal/observability"
)

// CreateCompanyParams holds the inputs for creating a company account.
type CreateCompanyParams struct {
	Name         string
	Email        string
	PasswordHash string
}

const sqlCreateCompany = `
INSERT INTO companies (name, email, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
RETURNING id, name, email, password_hash, plan_id, created_at, updated_at
`

// CreateCompany inserts a new tenant account.
func (s *Store) CreateCompany(ctx context.Context, params CreateCompanyParams) (Company, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "email", Value: params.Email})

	var company Company
	err := s.db.GetContext(ctx, &company, sqlCreateCompany, params.Name, params.Email, params.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "failed to create company", err)
		return Company{}, fmt.Errorf("failed to create company: %w", err)
	}

	s.logger.Info(ctx, "company created")
	return company, nil
}

const sqlGetCompanyByEmail = `
SELECT id, name, email, password_hash, plan_id, created_at, updated_at
FROM companies
WHERE email = $1
`

// GetCompanyByEmail retrieves a company by its login email.
func (s *Store) GetCompanyByEmail(ctx context.Context, email string) (Company, error) {
	var company Company
	err := s.db.GetContext(ctx, &company, sqlGetCompanyByEmail, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Company{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get company by email", err)
		return Company{}, fmt.Errorf("failed to get company by email: %w", err)
	}
	return company, nil
}

const sqlGetCompanyByID = `
SELECT id, name, email, password_hash, plan_id, created_at, updated_at
FROM companies
WHERE id = $1
`

// GetCompanyByID retrieves a company by id.
func (s *Store) GetCompanyByID(ctx context.Context, companyID int64) (Company, error) {
	var company Company
	err := s.db.GetContext(ctx, &company, sqlGetCompanyByID, companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Company{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get company by id", err)
		return Company{}, fmt.Errorf("failed to get company by id: %w", err)
	}
	return company, nil
}

const sqlCheckIfCompanyEmailExists = `
SELECT EXISTS(SELECT 1 FROM companies WHERE email = $1)
`

// CheckIfCompanyEmailExists reports whether an account already uses the email.
func (s *Store) CheckIfCompanyEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, sqlCheckIfCompanyEmailExists, email)
	if err != nil {
		s.logger.Error(ctx, "failed to check if company email exists", err)
		return false, fmt.Errorf("failed to check if company email exists: %w", err)
	}
	return exists, nil
}

const sqlUpdateCompanyPlan = `
UPDATE companies
SET plan_id = $2, updated_at = CURRENT_TIMESTAMP
WHERE id = $1
RETURNING id, name, email, password_hash, plan_id, created_at, updated_at
`

// UpdateCompanyPlan assigns a subscription plan to the company.
func (s *Store) UpdateCompanyPlan(ctx context.Context, companyID, planID int64) (Company, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "company_id", Value: companyID},
		observability.Field{Key: "plan_id", Value: planID},
	)

	var company Company
	err := s.db.GetContext(ctx, &company, sqlUpdateCompanyPlan, companyID, planID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Company{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to update company plan", err)
		return Company{}, fmt.Errorf("failed to update company plan: %w", err)
	}

	s.logger.Info(ctx, "company plan updated")
	return company, nil
}

const sqlUpdateCompanyPassword = `
UPDATE companies
SET password_hash = $2, updated_at = CURRENT_TIMESTAMP
WHERE id = $1
`

// UpdateCompanyPassword replaces the stored password hash.
func (s *Store) UpdateCompanyPassword(ctx context.Context, companyID int64, passwordHash string) error {
	result, err := s.db.ExecContext(ctx, sqlUpdateCompanyPassword, companyID, passwordHash)
	if err != nil {
		s.logger.Error(ctx, "failed to update company password", err)
		return fmt.Errorf("failed to update company password: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update company password: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
