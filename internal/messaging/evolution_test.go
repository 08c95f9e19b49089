package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"autosales/internal/config"
	"autosales/internal/observability"
)

func newEvolutionForTest(serverURL string) *EvolutionGateway {
	return NewEvolutionGateway(config.GatewayConfig{
		EvolutionAPIURL:   serverURL,
		EvolutionAPIKey:   "test-key",
		EvolutionInstance: "main",
	}, observability.NewLogger())
}

func TestEvolutionSendTextSuccess(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("apikey")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"key":{"id":"WAMID.123"},"status":"PENDING"}`))
	}))
	defer server.Close()

	gateway := newEvolutionForTest(server.URL)
	result := gateway.SendText(context.Background(), "11987654321", "Olá Maria")

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.MessageID != "WAMID.123" {
		t.Errorf("expected message id WAMID.123, got %q", result.MessageID)
	}
	if gotPath != "/message/sendText/main" {
		t.Errorf("expected instance path, got %q", gotPath)
	}
	if gotAPIKey != "test-key" {
		t.Errorf("expected apikey header, got %q", gotAPIKey)
	}
	if gotBody["number"] != "11987654321" || gotBody["text"] != "Olá Maria" {
		t.Errorf("unexpected request body: %v", gotBody)
	}
}

func TestEvolutionSendTextNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid apikey"}`))
	}))
	defer server.Close()

	gateway := newEvolutionForTest(server.URL)
	result := gateway.SendText(context.Background(), "11987654321", "Olá")

	if result.Success {
		t.Fatal("expected failure for 401 response")
	}
	if !strings.Contains(result.Error, "401") {
		t.Errorf("expected status in error, got %q", result.Error)
	}
	if !strings.Contains(result.Response, "invalid apikey") {
		t.Errorf("expected raw response preserved, got %q", result.Response)
	}
}

func TestEvolutionSendTextMissingMessageID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"PENDING"}`))
	}))
	defer server.Close()

	gateway := newEvolutionForTest(server.URL)
	result := gateway.SendText(context.Background(), "11987654321", "Olá")

	if result.Success {
		t.Fatal("expected failure when response has no message id")
	}
	if result.Error != "evolution api response missing message id" {
		t.Errorf("unexpected error %q", result.Error)
	}
}

func TestEvolutionSendTextConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	gateway := newEvolutionForTest(server.URL)
	result := gateway.SendText(context.Background(), "11987654321", "Olá")

	if result.Success {
		t.Fatal("expected failure when server is unreachable")
	}
	if result.Error == "" {
		t.Error("expected transport error to be reported")
	}
}
