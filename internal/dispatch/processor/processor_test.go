package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"autosales/internal/messaging"
	"autosales/internal/observability"
	"autosales/internal/store"
)

type fakeDispatchStore struct {
	user     store.User
	template store.Template
	contacts []store.Contact

	templateErr error

	createdCampaigns []store.CreateCampaignParams
	messages         []store.CreateMessageParams
	completed        []store.CompleteCampaignParams
	contacted        []uuid.UUID
	usageDelta       int
}

func (f *fakeDispatchStore) GetUserByID(_ context.Context, _ uuid.UUID) (store.User, error) {
	return f.user, nil
}

func (f *fakeDispatchStore) GetActiveTemplate(_ context.Context, _, _ uuid.UUID, _ string) (store.Template, error) {
	if f.templateErr != nil {
		return store.Template{}, f.templateErr
	}
	return f.template, nil
}

func (f *fakeDispatchStore) GetContactsByIDs(_ context.Context, _ uuid.UUID, _ []uuid.UUID) ([]store.Contact, error) {
	return f.contacts, nil
}

func (f *fakeDispatchStore) CreateCampaign(_ context.Context, params store.CreateCampaignParams) (store.Campaign, error) {
	f.createdCampaigns = append(f.createdCampaigns, params)
	return store.Campaign{
		ID:             uuid.New(),
		UserID:         params.UserID,
		Name:           params.Name,
		TemplateID:     params.TemplateID,
		TargetContacts: params.TargetContacts,
		Status:         params.Status,
		Stats:          params.Stats,
	}, nil
}

func (f *fakeDispatchStore) CompleteCampaign(_ context.Context, campaignID, userID uuid.UUID, params store.CompleteCampaignParams) (store.Campaign, error) {
	f.completed = append(f.completed, params)
	return store.Campaign{ID: campaignID, UserID: userID, Status: store.CampaignStatusCompleted}, nil
}

func (f *fakeDispatchStore) CreateMessage(_ context.Context, params store.CreateMessageParams) (store.Message, error) {
	f.messages = append(f.messages, params)
	return store.Message{ID: uuid.New()}, nil
}

func (f *fakeDispatchStore) MarkContactsContacted(_ context.Context, _ uuid.UUID, contactIDs []uuid.UUID, _ time.Time) error {
	f.contacted = append(f.contacted, contactIDs...)
	return nil
}

func (f *fakeDispatchStore) IncrementTemplateUsage(_ context.Context, _, _ uuid.UUID, delta int) error {
	f.usageDelta += delta
	return nil
}

type fakeGateway struct {
	results map[string]messaging.SendResult
	panicOn string
}

func (f *fakeGateway) SendText(_ context.Context, phone, _ string) messaging.SendResult {
	if phone == f.panicOn {
		panic("gateway exploded")
	}
	if result, ok := f.results[phone]; ok {
		return result
	}
	return messaging.SendResult{Success: true, MessageID: "WAMID." + phone}
}

type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) NotifyUser(_ uuid.UUID, eventType string, _ interface{}) {
	f.events = append(f.events, eventType)
}

type fakeMailer struct {
	sent []string
	err  error
}

func (f *fakeMailer) SendEmail(_ context.Context, _, to, _, _ string) (string, error) {
	f.sent = append(f.sent, to)
	return "email-id", f.err
}

// mondayMorning is inside the default sending window
var mondayMorning = time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

func newTestDispatcher(fake *fakeDispatchStore, gateway messaging.Gateway, notifier *fakeNotifier, mailer *fakeMailer) *DispatchProcessor {
	p := New(fake, gateway, notifier, mailer, "noreply@autosales.app", observability.NewLogger())
	p.now = func() time.Time { return mondayMorning }
	p.sleep = func(context.Context, time.Duration) bool { return true }
	return p
}

func testContacts(n int) []store.Contact {
	contacts := make([]store.Contact, n)
	for i := range contacts {
		contacts[i] = store.Contact{
			ID:     uuid.New(),
			Name:   "Contato",
			Phone:  "1198765432" + string(rune('0'+i)),
			Status: store.ContactStatusPending,
		}
	}
	return contacts
}

func TestDispatchTemplateNotFound(t *testing.T) {
	fake := &fakeDispatchStore{templateErr: store.ErrNotFound}
	p := newTestDispatcher(fake, &fakeGateway{}, &fakeNotifier{}, &fakeMailer{})

	_, err := p.Dispatch(context.Background(), uuid.New(), DispatchParams{
		Name:       "Cobrança de agosto",
		TemplateID: uuid.New(),
		ContactIDs: []uuid.UUID{uuid.New()},
		Schedule:   DefaultSchedule(),
	})
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
	if len(fake.createdCampaigns) != 0 {
		t.Error("expected no campaign created")
	}
}

func TestDispatchNoContactsResolved(t *testing.T) {
	fake := &fakeDispatchStore{template: store.Template{ID: uuid.New(), IsActive: true}}
	p := newTestDispatcher(fake, &fakeGateway{}, &fakeNotifier{}, &fakeMailer{})

	_, err := p.Dispatch(context.Background(), uuid.New(), DispatchParams{
		Name:       "Cobrança de agosto",
		TemplateID: uuid.New(),
		ContactIDs: []uuid.UUID{uuid.New()},
		Schedule:   DefaultSchedule(),
	})
	if !errors.Is(err, ErrContactsNotFound) {
		t.Fatalf("expected ErrContactsNotFound, got %v", err)
	}
}

func TestDispatchOutsideScheduleCreatesNothing(t *testing.T) {
	fake := &fakeDispatchStore{
		template: store.Template{ID: uuid.New(), IsActive: true},
		contacts: testContacts(1),
	}
	p := newTestDispatcher(fake, &fakeGateway{}, &fakeNotifier{}, &fakeMailer{})
	p.now = func() time.Time { return time.Date(2026, 8, 24, 22, 0, 0, 0, time.UTC) }

	_, err := p.Dispatch(context.Background(), uuid.New(), DispatchParams{
		Name:       "Cobrança noturna",
		TemplateID: fake.template.ID,
		ContactIDs: []uuid.UUID{fake.contacts[0].ID},
		Schedule:   DefaultSchedule(),
	})
	if !errors.Is(err, ErrOutsideSchedule) {
		t.Fatalf("expected ErrOutsideSchedule, got %v", err)
	}
	if len(fake.createdCampaigns) != 0 {
		t.Error("expected no campaign created outside the sending window")
	}
}

func TestDispatchInvalidSchedule(t *testing.T) {
	fake := &fakeDispatchStore{}
	p := newTestDispatcher(fake, &fakeGateway{}, &fakeNotifier{}, &fakeMailer{})

	_, err := p.Dispatch(context.Background(), uuid.New(), DispatchParams{
		Name:       "Cobrança",
		TemplateID: uuid.New(),
		ContactIDs: []uuid.UUID{uuid.New()},
		Schedule:   Schedule{StartTime: "18:00", EndTime: "09:00"},
	})
	if !errors.Is(err, ErrInvalidSchedule) {
		t.Fatalf("expected ErrInvalidSchedule, got %v", err)
	}
}

func TestDispatchRecordsMessagesAndFinalizes(t *testing.T) {
	userID := uuid.New()
	contacts := testContacts(3)
	template := store.Template{ID: uuid.New(), Content: "Olá {nome}", IsActive: true}
	fake := &fakeDispatchStore{
		user:     store.User{ID: userID, Name: "Dono", Email: "dono@example.com"},
		template: template,
		contacts: contacts,
	}
	gateway := &fakeGateway{results: map[string]messaging.SendResult{
		contacts[1].Phone: {Error: "number not on whatsapp"},
	}}
	notifier := &fakeNotifier{}
	mailer := &fakeMailer{}
	p := newTestDispatcher(fake, gateway, notifier, mailer)

	result, err := p.Dispatch(context.Background(), userID, DispatchParams{
		Name:       "Cobrança de agosto",
		TemplateID: template.ID,
		ContactIDs: []uuid.UUID{contacts[0].ID, contacts[1].ID, contacts[2].ID},
		Schedule:   DefaultSchedule(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// The loop runs to completion before Dispatch returns, so the
	// rollup and every message record must already be in place.
	if result.Sent != 2 || result.Failed != 1 || result.Total != 3 {
		t.Fatalf("expected 2/1/3 rollup, got %d/%d/%d", result.Sent, result.Failed, result.Total)
	}
	if len(result.Details) != 3 {
		t.Fatalf("expected 3 per-contact details, got %d", len(result.Details))
	}
	if result.Details[0].ContactID != contacts[0].ID || !result.Details[0].Success {
		t.Errorf("expected first detail successful, got %+v", result.Details[0])
	}
	if result.Details[1].Success || result.Details[1].Error != "number not on whatsapp" {
		t.Errorf("expected second detail failed with gateway error, got %+v", result.Details[1])
	}
	if result.Campaign.ID == uuid.Nil {
		t.Error("expected result to carry the created campaign")
	}

	if len(fake.messages) != 3 {
		t.Fatalf("expected 3 message records, got %d", len(fake.messages))
	}
	if fake.messages[0].Status != store.MessageStatusSent || fake.messages[0].WhatsAppMessageID == nil {
		t.Errorf("expected first message sent with provider id, got %+v", fake.messages[0])
	}
	if fake.messages[1].Status != store.MessageStatusFailed || fake.messages[1].ErrorMessage == nil {
		t.Errorf("expected second message failed with error, got %+v", fake.messages[1])
	}

	if len(fake.completed) != 1 {
		t.Fatalf("expected campaign completed once, got %d", len(fake.completed))
	}
	if len(fake.contacted) != 2 {
		t.Errorf("expected 2 contacts marked contacted, got %d", len(fake.contacted))
	}
	if fake.usageDelta != 2 {
		t.Errorf("expected usage incremented by 2, got %d", fake.usageDelta)
	}

	// one progress event per contact plus the completion event
	if len(notifier.events) != 4 {
		t.Errorf("expected 4 events, got %d: %v", len(notifier.events), notifier.events)
	}
	if notifier.events[len(notifier.events)-1] != "campaign_completed" {
		t.Errorf("expected final completion event, got %q", notifier.events[len(notifier.events)-1])
	}

	if len(mailer.sent) != 1 || mailer.sent[0] != "dono@example.com" {
		t.Errorf("expected summary email to owner, got %v", mailer.sent)
	}
}

func TestRunGatewayPanicCountsAsFailure(t *testing.T) {
	userID := uuid.New()
	contacts := testContacts(2)
	template := store.Template{ID: uuid.New(), Content: "Olá {nome}", IsActive: true}
	fake := &fakeDispatchStore{
		user:     store.User{ID: userID, Email: "dono@example.com"},
		template: template,
		contacts: contacts,
	}
	gateway := &fakeGateway{panicOn: contacts[0].Phone}
	p := newTestDispatcher(fake, gateway, &fakeNotifier{}, &fakeMailer{})

	campaign := store.Campaign{ID: uuid.New(), UserID: userID}
	p.run(context.Background(), userID, campaign, template, contacts, Schedule{StartTime: "09:00", EndTime: "18:00"})

	if fake.usageDelta != 1 {
		t.Errorf("expected run to continue past panic, usage delta %d", fake.usageDelta)
	}
	if len(fake.contacted) != 1 {
		t.Errorf("expected only the surviving contact marked, got %d", len(fake.contacted))
	}
}

func TestDispatchCancelledContextStopsLoop(t *testing.T) {
	userID := uuid.New()
	contacts := testContacts(2)
	template := store.Template{ID: uuid.New(), Content: "Olá {nome}", IsActive: true}
	fake := &fakeDispatchStore{
		user:     store.User{ID: userID, Email: "dono@example.com"},
		template: template,
		contacts: contacts,
	}
	p := newTestDispatcher(fake, &fakeGateway{}, &fakeNotifier{}, &fakeMailer{})
	p.sleep = sleepCtx

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	schedule := DefaultSchedule()
	schedule.IntervalSeconds = 1
	result, err := p.Dispatch(ctx, userID, DispatchParams{
		Name:       "Cobrança interrompida",
		TemplateID: template.ID,
		ContactIDs: []uuid.UUID{contacts[0].ID, contacts[1].ID},
		Schedule:   schedule,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// The pause after the first send observes the cancellation, so the
	// second contact is never attempted and the rollup still lands.
	if result.Sent != 1 || len(result.Details) != 1 {
		t.Fatalf("expected loop stopped after first contact, got %d sent, %d details", result.Sent, len(result.Details))
	}
	if len(fake.completed) != 1 {
		t.Error("expected campaign finalized after interruption")
	}
}

func TestRunSummaryEmailFailureNonFatal(t *testing.T) {
	userID := uuid.New()
	contacts := testContacts(1)
	template := store.Template{ID: uuid.New(), Content: "Olá {nome}"}
	fake := &fakeDispatchStore{
		user:     store.User{ID: userID, Email: "dono@example.com"},
		template: template,
		contacts: contacts,
	}
	mailer := &fakeMailer{err: errors.New("resend down")}
	p := newTestDispatcher(fake, &fakeGateway{}, &fakeNotifier{}, mailer)

	campaign := store.Campaign{ID: uuid.New(), UserID: userID}
	p.run(context.Background(), userID, campaign, template, contacts, Schedule{StartTime: "09:00", EndTime: "18:00"})

	if len(fake.completed) != 1 {
		t.Error("expected campaign finalized despite mailer failure")
	}
}
