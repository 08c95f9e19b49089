package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"autosales/internal/dispatch/processor"
	"autosales/internal/messaging"
	"autosales/internal/observability"
	"autosales/internal/store"
)

type fakeDispatchStore struct {
	user     store.User
	template store.Template
	contacts []store.Contact

	messages  []store.CreateMessageParams
	completed int
}

func (f *fakeDispatchStore) GetUserByID(_ context.Context, _ uuid.UUID) (store.User, error) {
	return f.user, nil
}

func (f *fakeDispatchStore) GetActiveTemplate(_ context.Context, _, _ uuid.UUID, _ string) (store.Template, error) {
	return f.template, nil
}

func (f *fakeDispatchStore) GetContactsByIDs(_ context.Context, _ uuid.UUID, _ []uuid.UUID) ([]store.Contact, error) {
	return f.contacts, nil
}

func (f *fakeDispatchStore) CreateCampaign(_ context.Context, params store.CreateCampaignParams) (store.Campaign, error) {
	return store.Campaign{ID: uuid.New(), UserID: params.UserID, Name: params.Name}, nil
}

func (f *fakeDispatchStore) CompleteCampaign(_ context.Context, campaignID, userID uuid.UUID, _ store.CompleteCampaignParams) (store.Campaign, error) {
	f.completed++
	return store.Campaign{ID: campaignID, UserID: userID, Status: store.CampaignStatusCompleted}, nil
}

func (f *fakeDispatchStore) CreateMessage(_ context.Context, params store.CreateMessageParams) (store.Message, error) {
	f.messages = append(f.messages, params)
	return store.Message{ID: uuid.New()}, nil
}

func (f *fakeDispatchStore) MarkContactsContacted(_ context.Context, _ uuid.UUID, _ []uuid.UUID, _ time.Time) error {
	return nil
}

func (f *fakeDispatchStore) IncrementTemplateUsage(_ context.Context, _, _ uuid.UUID, _ int) error {
	return nil
}

type fakeGateway struct {
	failPhone string
}

func (f *fakeGateway) SendText(_ context.Context, phone, _ string) messaging.SendResult {
	if phone == f.failPhone {
		return messaging.SendResult{Error: "number not on whatsapp"}
	}
	return messaging.SendResult{Success: true, MessageID: "WAMID." + phone}
}

type fakeNotifier struct{}

func (fakeNotifier) NotifyUser(_ uuid.UUID, _ string, _ interface{}) {}

type fakeMailer struct{}

func (fakeMailer) SendEmail(_ context.Context, _, _, _, _ string) (string, error) {
	return "email-id", nil
}

func newTestRouter(fake *fakeDispatchStore, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := observability.NewLogger()
	p := processor.New(fake, &fakeGateway{failPhone: "21987654321"}, fakeNotifier{}, fakeMailer{}, "noreply@autosales.app", logger)
	h := New(p, nil, logger)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("User-ID", userID.String())
		c.Next()
	})
	router.POST("/campaigns/send", h.HandleSend)
	return router
}

func TestHandleSendReturnsRunRollup(t *testing.T) {
	userID := uuid.New()
	fake := &fakeDispatchStore{
		user:     store.User{ID: userID, Email: "dono@example.com"},
		template: store.Template{ID: uuid.New(), Content: "Olá {nome}", IsActive: true},
		contacts: []store.Contact{
			{ID: uuid.New(), Name: "Maria", Phone: "11987654321"},
			{ID: uuid.New(), Name: "João", Phone: "21987654321"},
		},
	}
	router := newTestRouter(fake, userID)

	// Full-day window with no pause keeps the run deterministic
	body := `{
		"name": "Cobrança de agosto",
		"templateId": "` + fake.template.ID.String() + `",
		"contactIds": ["` + fake.contacts[0].ID.String() + `", "` + fake.contacts[1].ID.String() + `"],
		"config": {"horarioInicio": "00:00", "horarioFim": "23:59", "diasUteis": false, "intervalSeconds": 0}
	}`
	req := httptest.NewRequest(http.MethodPost, "/campaigns/send", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after the run, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success    bool                      `json:"success"`
		CampaignID uuid.UUID                 `json:"campaignId"`
		Sent       int                       `json:"sent"`
		Failed     int                       `json:"failed"`
		Total      int                       `json:"total"`
		Details    []processor.ContactResult `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Sent != 1 || resp.Failed != 1 || resp.Total != 2 {
		t.Errorf("expected 1/1/2 rollup, got %d/%d/%d", resp.Sent, resp.Failed, resp.Total)
	}
	if resp.Success {
		t.Error("expected success false when a send failed")
	}
	if resp.CampaignID == uuid.Nil {
		t.Error("expected campaign id in response")
	}
	if len(resp.Details) != 2 || resp.Details[1].Error == "" {
		t.Errorf("expected per-contact details with the gateway error, got %+v", resp.Details)
	}

	// The run finished before the response, so the records exist already
	if len(fake.messages) != 2 {
		t.Errorf("expected 2 message records before the response, got %d", len(fake.messages))
	}
	if fake.completed != 1 {
		t.Errorf("expected campaign completed before the response, got %d", fake.completed)
	}
}

func TestResolveScheduleIntervalKeys(t *testing.T) {
	if got := resolveSchedule(nil); got.IntervalSeconds != processor.DefaultSchedule().IntervalSeconds {
		t.Errorf("expected default interval without config, got %d", got.IntervalSeconds)
	}

	legacy := 45
	if got := resolveSchedule(&ScheduleConfig{IntervalMinutes: &legacy}); got.IntervalSeconds != 45 {
		t.Errorf("expected intervalMinutes accepted as seconds, got %d", got.IntervalSeconds)
	}

	current := 10
	if got := resolveSchedule(&ScheduleConfig{IntervalSeconds: &current, IntervalMinutes: &legacy}); got.IntervalSeconds != 10 {
		t.Errorf("expected intervalSeconds to win over the legacy key, got %d", got.IntervalSeconds)
	}
}
