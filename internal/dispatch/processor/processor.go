package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"autosales/internal/messaging"
	"autosales/internal/observability"
	"autosales/internal/store"
)

var (
	ErrTemplateNotFound = errors.New("active template not found")
	ErrContactsNotFound = errors.New("no target contacts found")
	ErrOutsideSchedule  = errors.New("outside the configured sending window")
	ErrInvalidSchedule  = errors.New("invalid schedule")
)

// DispatchStore is the persistence surface the dispatcher needs
type DispatchStore interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (store.User, error)
	GetActiveTemplate(ctx context.Context, templateID, userID uuid.UUID, category string) (store.Template, error)
	GetContactsByIDs(ctx context.Context, userID uuid.UUID, contactIDs []uuid.UUID) ([]store.Contact, error)
	CreateCampaign(ctx context.Context, params store.CreateCampaignParams) (store.Campaign, error)
	CompleteCampaign(ctx context.Context, campaignID, userID uuid.UUID, params store.CompleteCampaignParams) (store.Campaign, error)
	CreateMessage(ctx context.Context, params store.CreateMessageParams) (store.Message, error)
	MarkContactsContacted(ctx context.Context, userID uuid.UUID, contactIDs []uuid.UUID, contactedAt time.Time) error
	IncrementTemplateUsage(ctx context.Context, templateID, userID uuid.UUID, delta int) error
}

var _ DispatchStore = (*store.Store)(nil)

// Notifier pushes campaign progress events to a user's open sessions
type Notifier interface {
	NotifyUser(userID uuid.UUID, eventType string, data interface{})
}

// Mailer sends the post-run summary email
type Mailer interface {
	SendEmail(ctx context.Context, from, to, subject, htmlContent string) (string, error)
}

type DispatchProcessor struct {
	store       DispatchStore
	gateway     messaging.Gateway
	notifier    Notifier
	mailer      Mailer
	emailSender string
	logger      *observability.Logger

	// now and sleep are indirected for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool
}

func New(dispatchStore DispatchStore, gateway messaging.Gateway, notifier Notifier, mailer Mailer, emailSender string, logger *observability.Logger) *DispatchProcessor {
	return &DispatchProcessor{
		store:       dispatchStore,
		gateway:     gateway,
		notifier:    notifier,
		mailer:      mailer,
		emailSender: emailSender,
		logger:      logger,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// sleepCtx waits for d unless the context ends first. It reports
// whether the full pause elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// DispatchParams describes one campaign run request
type DispatchParams struct {
	Name        string
	Description *string
	TemplateID  uuid.UUID
	ContactIDs  []uuid.UUID
	Schedule    Schedule
}

// Progress is the payload of every per-contact progress event
type Progress struct {
	CampaignID string `json:"campaignId"`
	ContactID  string `json:"contactId"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
	Total      int    `json:"total"`
	Success    bool   `json:"success"`
}

// ContactResult records the outcome of one send attempt
type ContactResult struct {
	ContactID uuid.UUID `json:"contactId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// DispatchResult is the rollup returned after the send loop finishes
type DispatchResult struct {
	Campaign store.Campaign
	Sent     int
	Failed   int
	Total    int
	Details  []ContactResult
}

// Dispatch validates a run request, creates the campaign record and
// runs the send loop to completion before returning. Validation
// failures happen before anything is persisted, so a rejected request
// leaves no trace.
func (p *DispatchProcessor) Dispatch(ctx context.Context, userID uuid.UUID, params DispatchParams) (DispatchResult, error) {
	if err := params.Schedule.Validate(); err != nil {
		return DispatchResult{}, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	template, err := p.store.GetActiveTemplate(ctx, params.TemplateID, userID, store.TemplateCategoryCollection)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return DispatchResult{}, ErrTemplateNotFound
		}
		return DispatchResult{}, fmt.Errorf("failed to load template: %w", err)
	}

	contacts, err := p.store.GetContactsByIDs(ctx, userID, params.ContactIDs)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("failed to load contacts: %w", err)
	}
	if len(contacts) == 0 {
		return DispatchResult{}, ErrContactsNotFound
	}

	// The window is checked before anything is written, so a request
	// outside business hours leaves no campaign behind
	if !params.Schedule.Allows(p.now()) {
		return DispatchResult{}, ErrOutsideSchedule
	}

	targets := make(store.StringArray, len(contacts))
	for i, contact := range contacts {
		targets[i] = contact.ID.String()
	}

	stats := store.CampaignStats{TotalContacts: len(contacts)}
	campaign, err := p.store.CreateCampaign(ctx, store.CreateCampaignParams{
		UserID:         userID,
		Name:           params.Name,
		Description:    params.Description,
		Type:           store.CampaignTypeCollection,
		TargetContacts: targets,
		TemplateID:     template.ID,
		Status:         store.CampaignStatusActive,
		Stats:          stats.ToJSONB(),
	})
	if err != nil {
		return DispatchResult{}, fmt.Errorf("failed to create campaign: %w", err)
	}

	return p.run(ctx, userID, campaign, template, contacts, params.Schedule), nil
}

// run executes the send loop and finalizes the campaign. Failures on
// individual contacts never abort the run; a cancelled request stops
// the pauses between sends but the rollup is still written.
func (p *DispatchProcessor) run(ctx context.Context, userID uuid.UUID, campaign store.Campaign, template store.Template, contacts []store.Contact, schedule Schedule) DispatchResult {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "campaign_id", Value: campaign.ID.String()},
		observability.Field{Key: "user_id", Value: userID.String()},
	)
	startedAt := p.now()

	sent := 0
	failed := 0
	sentContacts := make([]uuid.UUID, 0, len(contacts))
	details := make([]ContactResult, 0, len(contacts))

	for i, contact := range contacts {
		result := p.sendOne(ctx, userID, template, contact)
		if result.Success {
			sent++
			sentContacts = append(sentContacts, contact.ID)
		} else {
			failed++
		}
		details = append(details, ContactResult{
			ContactID: contact.ID,
			Name:      contact.Name,
			Phone:     contact.Phone,
			Success:   result.Success,
			Error:     result.Error,
		})

		p.notifier.NotifyUser(userID, "message_progress", Progress{
			CampaignID: campaign.ID.String(),
			ContactID:  contact.ID.String(),
			Sent:       sent,
			Failed:     failed,
			Total:      len(contacts),
			Success:    result.Success,
		})

		if i < len(contacts)-1 && schedule.IntervalSeconds > 0 {
			if !p.sleep(ctx, time.Duration(schedule.IntervalSeconds)*time.Second) {
				p.logger.Warn(ctx, "campaign run interrupted")
				break
			}
		}
	}

	p.finalize(ctx, userID, campaign, template, sent, failed, len(contacts), sentContacts, startedAt)

	return DispatchResult{
		Campaign: campaign,
		Sent:     sent,
		Failed:   failed,
		Total:    len(contacts),
		Details:  details,
	}
}

// sendOne renders and delivers one message and records the attempt.
// A panic in the gateway or store counts as a failed send.
func (p *DispatchProcessor) sendOne(ctx context.Context, userID uuid.UUID, template store.Template, contact store.Contact) (result messaging.SendResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(ctx, "send attempt panicked", fmt.Errorf("%v", r))
			result = messaging.SendResult{Error: fmt.Sprintf("panic: %v", r)}
		}
	}()

	content := RenderTemplate(template.Content, contact, p.now())
	result = p.gateway.SendText(ctx, contact.Phone, content)

	params := store.CreateMessageParams{
		UserID:      userID,
		ContactID:   contact.ID,
		TemplateID:  template.ID,
		Content:     content,
		Direction:   store.MessageDirectionOutbound,
		MessageType: store.MessageTypeText,
		SentAt:      p.now(),
	}
	if result.Success {
		params.Status = store.MessageStatusSent
		if result.MessageID != "" {
			messageID := result.MessageID
			params.WhatsAppMessageID = &messageID
		}
	} else {
		params.Status = store.MessageStatusFailed
		if result.Error != "" {
			errorMessage := result.Error
			params.ErrorMessage = &errorMessage
		}
	}

	if _, err := p.store.CreateMessage(ctx, params); err != nil {
		p.logger.Error(ctx, "failed to record message", err)
	}

	return result
}

// finalize writes the rollup and side effects after the loop. Each
// step is best effort; one failing does not skip the others.
func (p *DispatchProcessor) finalize(ctx context.Context, userID uuid.UUID, campaign store.Campaign, template store.Template, sent, failed, total int, sentContacts []uuid.UUID, startedAt time.Time) {
	stats := store.CampaignStats{
		TotalContacts: total,
		MessagesSent:  sent,
	}
	if _, err := p.store.CompleteCampaign(ctx, campaign.ID, userID, store.CompleteCampaignParams{
		Stats:     stats.ToJSONB(),
		StartedAt: startedAt,
	}); err != nil {
		p.logger.Error(ctx, "failed to complete campaign", err)
	}

	if len(sentContacts) > 0 {
		if err := p.store.MarkContactsContacted(ctx, userID, sentContacts, p.now()); err != nil {
			p.logger.Error(ctx, "failed to mark contacts contacted", err)
		}
	}

	if err := p.store.IncrementTemplateUsage(ctx, template.ID, userID, sent); err != nil {
		p.logger.Error(ctx, "failed to increment template usage", err)
	}

	p.notifier.NotifyUser(userID, "campaign_completed", Progress{
		CampaignID: campaign.ID.String(),
		Sent:       sent,
		Failed:     failed,
		Total:      total,
		Success:    failed == 0,
	})

	p.sendSummaryEmail(ctx, userID, campaign, sent, failed, total)

	p.logger.Info(ctx, fmt.Sprintf("campaign completed: %d sent, %d failed of %d", sent, failed, total))
}

func (p *DispatchProcessor) sendSummaryEmail(ctx context.Context, userID uuid.UUID, campaign store.Campaign, sent, failed, total int) {
	user, err := p.store.GetUserByID(ctx, userID)
	if err != nil {
		p.logger.Error(ctx, "failed to load user for summary email", err)
		return
	}

	subject := fmt.Sprintf("Campanha %q concluída", campaign.Name)
	html := fmt.Sprintf(
		"<h2>Campanha concluída</h2><p>Olá %s,</p><p>Sua campanha <strong>%s</strong> terminou.</p><ul><li>Contatos: %d</li><li>Enviadas: %d</li><li>Falhas: %d</li></ul>",
		user.Name, campaign.Name, total, sent, failed)

	if _, err := p.mailer.SendEmail(ctx, p.emailSender, user.Email, subject, html); err != nil {
		p.logger.Error(ctx, "failed to send summary email", err)
	}
}
