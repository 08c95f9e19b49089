package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateTemplateParams represents parameters for creating a template
type CreateTemplateParams struct {
	UserID    uuid.UUID
	Name      string
	Content   string
	Variables StringArray
	Category  string
	IsActive  bool
}

// UpdateTemplateParams represents parameters for updating a template.
// Nil fields keep their current value.
type UpdateTemplateParams struct {
	Name      *string
	Content   *string
	Variables StringArray
	IsActive  *bool
}

const templateColumns = `id, user_id, name, content, variables, category, is_active, usage_count, created_at, updated_at`

const sqlCreateTemplate = `
INSERT INTO templates (user_id, name, content, variables, category, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + templateColumns

// CreateTemplate creates a new message template
func (s *Store) CreateTemplate(ctx context.Context, params CreateTemplateParams) (Template, error) {
	var template Template
	err := s.db.GetContext(ctx, &template, sqlCreateTemplate,
		params.UserID,
		params.Name,
		params.Content,
		params.Variables,
		params.Category,
		params.IsActive)
	if err != nil {
		return Template{}, fmt.Errorf("failed to create template: %w", err)
	}
	return template, nil
}

const sqlGetTemplateByID = `
SELECT ` + templateColumns + `
FROM templates
WHERE id = $1 AND user_id = $2
`

// GetTemplateByID retrieves a template by ID scoped to its owner
func (s *Store) GetTemplateByID(ctx context.Context, templateID, userID uuid.UUID) (Template, error) {
	var template Template
	err := s.db.GetContext(ctx, &template, sqlGetTemplateByID, templateID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Template{}, ErrNotFound
		}
		return Template{}, fmt.Errorf("failed to get template by id: %w", err)
	}
	return template, nil
}

const sqlGetActiveTemplate = `
SELECT ` + templateColumns + `
FROM templates
WHERE id = $1 AND user_id = $2 AND is_active = TRUE AND category = $3
`

// GetActiveTemplate retrieves an active template in the given category,
// scoped to its owner. Used by the dispatcher so inactive templates
// look like they do not exist.
func (s *Store) GetActiveTemplate(ctx context.Context, templateID, userID uuid.UUID, category string) (Template, error) {
	var template Template
	err := s.db.GetContext(ctx, &template, sqlGetActiveTemplate, templateID, userID, category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Template{}, ErrNotFound
		}
		return Template{}, fmt.Errorf("failed to get active template: %w", err)
	}
	return template, nil
}

const sqlGetTemplateByName = `
SELECT ` + templateColumns + `
FROM templates
WHERE user_id = $1 AND name = $2 AND category = $3
`

// GetTemplateByName retrieves a template by name within a category
func (s *Store) GetTemplateByName(ctx context.Context, userID uuid.UUID, name, category string) (Template, error) {
	var template Template
	err := s.db.GetContext(ctx, &template, sqlGetTemplateByName, userID, name, category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Template{}, ErrNotFound
		}
		return Template{}, fmt.Errorf("failed to get template by name: %w", err)
	}
	return template, nil
}

const sqlListActiveTemplates = `
SELECT ` + templateColumns + `
FROM templates
WHERE user_id = $1 AND is_active = TRUE AND category = $2
ORDER BY created_at DESC
`

// ListActiveTemplates retrieves a user's active templates in a category,
// newest first
func (s *Store) ListActiveTemplates(ctx context.Context, userID uuid.UUID, category string) ([]Template, error) {
	var templates []Template
	err := s.db.SelectContext(ctx, &templates, sqlListActiveTemplates, userID, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list active templates: %w", err)
	}
	return templates, nil
}

// UpdateTemplate applies a partial update and stamps updated_at
func (s *Store) UpdateTemplate(ctx context.Context, templateID, userID uuid.UUID, params UpdateTemplateParams) (Template, error) {
	query := `UPDATE templates SET updated_at = CURRENT_TIMESTAMP`
	args := []interface{}{}
	argPos := 0

	addSet := func(column string, value interface{}) {
		argPos++
		query += fmt.Sprintf(", %s = $%d", column, argPos)
		args = append(args, value)
	}

	if params.Name != nil {
		addSet("name", *params.Name)
	}
	if params.Content != nil {
		addSet("content", *params.Content)
		// variables are derived from content, so they travel together
		addSet("variables", params.Variables)
	}
	if params.IsActive != nil {
		addSet("is_active", *params.IsActive)
	}

	query += fmt.Sprintf(" WHERE id = $%d AND user_id = $%d RETURNING ", argPos+1, argPos+2) + templateColumns
	args = append(args, templateID, userID)

	var template Template
	err := s.db.GetContext(ctx, &template, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Template{}, ErrNotFound
		}
		return Template{}, fmt.Errorf("failed to update template: %w", err)
	}
	return template, nil
}

const sqlIncrementTemplateUsage = `
UPDATE templates
SET usage_count = usage_count + $3,
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND user_id = $2
`

// IncrementTemplateUsage adds the number of successful sends to usage_count
func (s *Store) IncrementTemplateUsage(ctx context.Context, templateID, userID uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, sqlIncrementTemplateUsage, templateID, userID, delta)
	if err != nil {
		return fmt.Errorf("failed to increment template usage: %w", err)
	}
	return nil
}
