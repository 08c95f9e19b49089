package processor

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"autosales/internal/observability"
	"autosales/internal/store"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrDuplicateName    = errors.New("template with this name already exists")
)

// TemplateStore is the persistence surface the templates feature needs
type TemplateStore interface {
	CreateTemplate(ctx context.Context, params store.CreateTemplateParams) (store.Template, error)
	GetTemplateByID(ctx context.Context, templateID, userID uuid.UUID) (store.Template, error)
	GetTemplateByName(ctx context.Context, userID uuid.UUID, name, category string) (store.Template, error)
	ListActiveTemplates(ctx context.Context, userID uuid.UUID, category string) ([]store.Template, error)
	UpdateTemplate(ctx context.Context, templateID, userID uuid.UUID, params store.UpdateTemplateParams) (store.Template, error)
}

// Suggester produces a draft message body from a free-form description
type Suggester interface {
	SuggestTemplate(ctx context.Context, description string) (string, error)
}

var _ TemplateStore = (*store.Store)(nil)

// placeholderPattern matches {nome}-style placeholders in a body
var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// ExtractVariables lists the placeholder names in a template body in
// order of appearance. Repeated placeholders appear once per use.
func ExtractVariables(content string) store.StringArray {
	matches := placeholderPattern.FindAllStringSubmatch(content, -1)
	variables := make(store.StringArray, 0, len(matches))
	for _, match := range matches {
		variables = append(variables, match[1])
	}
	return variables
}

type TemplatesProcessor struct {
	store     TemplateStore
	suggester Suggester
	logger    *observability.Logger
}

func New(templateStore TemplateStore, suggester Suggester, logger *observability.Logger) *TemplatesProcessor {
	return &TemplatesProcessor{
		store:     templateStore,
		suggester: suggester,
		logger:    logger,
	}
}

func (p *TemplatesProcessor) List(ctx context.Context, userID uuid.UUID) ([]store.Template, error) {
	templates, err := p.store.ListActiveTemplates(ctx, userID, store.TemplateCategoryCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

func (p *TemplatesProcessor) Create(ctx context.Context, userID uuid.UUID, name, content string) (store.Template, error) {
	_, err := p.store.GetTemplateByName(ctx, userID, name, store.TemplateCategoryCollection)
	if err == nil {
		return store.Template{}, ErrDuplicateName
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Template{}, fmt.Errorf("failed to check for existing template: %w", err)
	}

	template, err := p.store.CreateTemplate(ctx, store.CreateTemplateParams{
		UserID:    userID,
		Name:      name,
		Content:   content,
		Variables: ExtractVariables(content),
		Category:  store.TemplateCategoryCollection,
		IsActive:  true,
	})
	if err != nil {
		return store.Template{}, fmt.Errorf("failed to create template: %w", err)
	}
	return template, nil
}

// UpdateParams carries a partial template update
type UpdateParams struct {
	Name     *string
	Content  *string
	IsActive *bool
}

// Update applies a partial update. Changing the content re-derives the
// variable list so the two never drift apart.
func (p *TemplatesProcessor) Update(ctx context.Context, userID, templateID uuid.UUID, params UpdateParams) (store.Template, error) {
	if params.Name != nil {
		existing, err := p.store.GetTemplateByName(ctx, userID, *params.Name, store.TemplateCategoryCollection)
		if err == nil && existing.ID != templateID {
			return store.Template{}, ErrDuplicateName
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return store.Template{}, fmt.Errorf("failed to check for existing template: %w", err)
		}
	}

	storeParams := store.UpdateTemplateParams{
		Name:     params.Name,
		Content:  params.Content,
		IsActive: params.IsActive,
	}
	if params.Content != nil {
		storeParams.Variables = ExtractVariables(*params.Content)
	}

	template, err := p.store.UpdateTemplate(ctx, templateID, userID, storeParams)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Template{}, ErrTemplateNotFound
		}
		return store.Template{}, fmt.Errorf("failed to update template: %w", err)
	}
	return template, nil
}

// Suggestion is a drafted template body with its detected placeholders
type Suggestion struct {
	Content   string            `json:"content"`
	Variables store.StringArray `json:"variables"`
}

// Suggest asks the AI client for a draft collection message
func (p *TemplatesProcessor) Suggest(ctx context.Context, userID uuid.UUID, description string) (Suggestion, error) {
	content, err := p.suggester.SuggestTemplate(ctx, description)
	if err != nil {
		return Suggestion{}, fmt.Errorf("failed to generate template suggestion: %w", err)
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "user_id", Value: userID.String()},
	)
	p.logger.Info(ctx, "generated template suggestion")

	return Suggestion{
		Content:   content,
		Variables: ExtractVariables(content),
	}, nil
}
