package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"autosales/internal/observability"
	"autosales/internal/store"
	"autosales/internal/templates/processor"
)

type fakeTemplateStore struct {
	existing store.Template
	hasName  bool
}

func (f *fakeTemplateStore) CreateTemplate(_ context.Context, params store.CreateTemplateParams) (store.Template, error) {
	return store.Template{ID: uuid.New(), Name: params.Name, Content: params.Content}, nil
}

func (f *fakeTemplateStore) GetTemplateByID(_ context.Context, _, _ uuid.UUID) (store.Template, error) {
	return f.existing, nil
}

func (f *fakeTemplateStore) GetTemplateByName(_ context.Context, _ uuid.UUID, _, _ string) (store.Template, error) {
	if f.hasName {
		return f.existing, nil
	}
	return store.Template{}, store.ErrNotFound
}

func (f *fakeTemplateStore) ListActiveTemplates(_ context.Context, _ uuid.UUID, _ string) ([]store.Template, error) {
	return nil, nil
}

func (f *fakeTemplateStore) UpdateTemplate(_ context.Context, templateID, _ uuid.UUID, _ store.UpdateTemplateParams) (store.Template, error) {
	return store.Template{ID: templateID}, nil
}

type fakeSuggester struct{}

func (fakeSuggester) SuggestTemplate(_ context.Context, _ string) (string, error) {
	return "Olá {nome}", nil
}

func newTestRouter(fake *fakeTemplateStore, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := observability.NewLogger()
	h := New(processor.New(fake, fakeSuggester{}, logger), logger)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("User-ID", userID.String())
		c.Next()
	})
	router.POST("/templates", h.HandleCreate)
	router.PUT("/templates/:id", h.HandleUpdate)
	return router
}

func TestHandleCreateDuplicateNameIsBadRequest(t *testing.T) {
	fake := &fakeTemplateStore{
		hasName:  true,
		existing: store.Template{ID: uuid.New(), Name: "Cobrança padrão"},
	}
	router := newTestRouter(fake, uuid.New())

	body := `{"name":"Cobrança padrão","content":"Olá {nome}"}`
	req := httptest.NewRequest(http.MethodPost, "/templates", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate name, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "DUPLICATE_NAME") {
		t.Errorf("expected DUPLICATE_NAME code in body, got %s", w.Body.String())
	}
}

func TestHandleUpdateDuplicateNameIsBadRequest(t *testing.T) {
	fake := &fakeTemplateStore{
		hasName:  true,
		existing: store.Template{ID: uuid.New(), Name: "Cobrança padrão"},
	}
	router := newTestRouter(fake, uuid.New())

	body := `{"name":"Cobrança padrão"}`
	req := httptest.NewRequest(http.MethodPut, "/templates/"+uuid.NewString(), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate name, got %d", w.Code)
	}
}
