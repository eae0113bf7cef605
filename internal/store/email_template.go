package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const sqlGetEmailTemplateByType = `
SELECT id, name, type, subject, html_content, created_at, updated_at
FROM email_templates
WHERE type = $1
ORDER BY id
LIMIT 1
`

// GetEmailTemplateByType retrieves the template matching a campaign type.
func (s *Store) GetEmailTemplateByType(ctx context.Context, campaignType string) (EmailTemplate, error) {
	var template EmailTemplate
	err := s.db.GetContext(ctx, &template, sqlGetEmailTemplateByType, campaignType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EmailTemplate{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get email template by type", err)
		return EmailTemplate{}, fmt.Errorf("failed to get email template by type: %w", err)
	}
	return template, nil
}

const sqlListEmailTemplates = `
SELECT id, name, type, subject, html_content, created_at, updated_at
FROM email_templates
ORDER BY id
`

// ListEmailTemplates retrieves all templates.
func (s *Store) ListEmailTemplates(ctx context.Context) ([]EmailTemplate, error) {
	var templates []EmailTemplate
	err := s.db.SelectContext(ctx, &templates, sqlListEmailTemplates)
	if err != nil {
		s.logger.Error(ctx, "failed to list email templates", err)
		return nil, fmt.Errorf("failed to list email templates: %w", err)
	}
	return templates, nil
}
