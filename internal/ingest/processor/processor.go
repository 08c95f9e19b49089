package processor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"autosales/internal/observability"
	"autosales/internal/store"
)

// IngestStore is the persistence surface the ingestion flow needs
type IngestStore interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (store.User, error)
	CountContacts(ctx context.Context, params store.ListContactsParams) (int, error)
}

// PlanLimitError reports that an upload would push the account past
// its contact allowance.
type PlanLimitError struct {
	Plan     string
	Limit    int
	Current  int
	Incoming int
}

func (e *PlanLimitError) Error() string {
	return fmt.Sprintf("plano %s permite até %d contatos (atual: %d, planilha: %d)", e.Plan, e.Limit, e.Current, e.Incoming)
}

// planContactLimits holds the contact allowance per plan. Enterprise
// has no cap.
var planContactLimits = map[string]int{
	store.UserPlanTrial:    50,
	store.UserPlanStarter:  500,
	store.UserPlanBusiness: 2000,
}

type IngestProcessor struct {
	store  IngestStore
	logger *observability.Logger
}

func New(ingestStore IngestStore, logger *observability.Logger) *IngestProcessor {
	return &IngestProcessor{
		store:  ingestStore,
		logger: logger,
	}
}

// ProcessUpload parses an uploaded spreadsheet and enforces the plan's
// contact allowance against what the account already holds.
func (p *IngestProcessor) ProcessUpload(ctx context.Context, userID uuid.UUID, data []byte, filename string) (ParseResult, error) {
	result, err := ParseSpreadsheet(data, filename)
	if err != nil {
		return ParseResult{}, err
	}

	user, err := p.store.GetUserByID(ctx, userID)
	if err != nil {
		return ParseResult{}, fmt.Errorf("failed to load user: %w", err)
	}

	limit, capped := planContactLimits[user.Plan]
	if capped {
		current, err := p.store.CountContacts(ctx, store.ListContactsParams{UserID: userID})
		if err != nil {
			return ParseResult{}, fmt.Errorf("failed to count contacts: %w", err)
		}
		if current+result.Processed > limit {
			return ParseResult{}, &PlanLimitError{
				Plan:     user.Plan,
				Limit:    limit,
				Current:  current,
				Incoming: result.Processed,
			}
		}
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "user_id", Value: userID.String()},
		observability.Field{Key: "filename", Value: filename},
	)
	p.logger.Info(ctx, fmt.Sprintf("parsed spreadsheet: %d of %d rows valid", result.Processed, result.Total))

	return result, nil
}
