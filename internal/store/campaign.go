package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateCampaignParams represents parameters for creating a campaign
type CreateCampaignParams struct {
	UserID         uuid.UUID
	Name           string
	Description    *string
	Type           string
	TargetContacts StringArray
	TemplateID     uuid.UUID
	Status         string
	Stats          JSONB
}

// CompleteCampaignParams carries the final rollup written when a run finishes
type CompleteCampaignParams struct {
	Stats     JSONB
	StartedAt time.Time
}

const campaignColumns = `id, user_id, name, description, type, target_contacts, template_id, status, stats, started_at, created_at, updated_at`

const sqlCreateCampaign = `
INSERT INTO campaigns (user_id, name, description, type, target_contacts, template_id, status, stats)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + campaignColumns

// CreateCampaign creates a new campaign record
func (s *Store) CreateCampaign(ctx context.Context, params CreateCampaignParams) (Campaign, error) {
	var campaign Campaign
	err := s.db.GetContext(ctx, &campaign, sqlCreateCampaign,
		params.UserID,
		params.Name,
		params.Description,
		params.Type,
		params.TargetContacts,
		params.TemplateID,
		params.Status,
		params.Stats)
	if err != nil {
		return Campaign{}, fmt.Errorf("failed to create campaign: %w", err)
	}
	return campaign, nil
}

const sqlGetCampaignByID = `
SELECT ` + campaignColumns + `
FROM campaigns
WHERE id = $1 AND user_id = $2
`

// GetCampaignByID retrieves a campaign by ID scoped to its owner
func (s *Store) GetCampaignByID(ctx context.Context, campaignID, userID uuid.UUID) (Campaign, error) {
	var campaign Campaign
	err := s.db.GetContext(ctx, &campaign, sqlGetCampaignByID, campaignID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		return Campaign{}, fmt.Errorf("failed to get campaign by id: %w", err)
	}
	return campaign, nil
}

const sqlListCampaigns = `
SELECT ` + campaignColumns + `
FROM campaigns
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

// ListCampaigns retrieves a user's campaigns, newest first
func (s *Store) ListCampaigns(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Campaign, error) {
	var campaigns []Campaign
	err := s.db.SelectContext(ctx, &campaigns, sqlListCampaigns, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

const sqlCompleteCampaign = `
UPDATE campaigns
SET status = $3,
    stats = $4,
    started_at = $5,
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND user_id = $2
RETURNING ` + campaignColumns

// CompleteCampaign writes the final stats and marks the run completed
func (s *Store) CompleteCampaign(ctx context.Context, campaignID, userID uuid.UUID, params CompleteCampaignParams) (Campaign, error) {
	var campaign Campaign
	err := s.db.GetContext(ctx, &campaign, sqlCompleteCampaign,
		campaignID, userID, CampaignStatusCompleted, params.Stats, params.StartedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		return Campaign{}, fmt.Errorf("failed to complete campaign: %w", err)
	}
	return campaign, nil
}
