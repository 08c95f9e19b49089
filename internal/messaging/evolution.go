package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autosales/internal/config"
	"autosales/internal/observability"
)

// EvolutionGateway sends WhatsApp messages through an Evolution API
// instance.
type EvolutionGateway struct {
	baseURL    string
	apiKey     string
	instance   string
	httpClient *http.Client
	logger     *observability.Logger
}

func NewEvolutionGateway(cfg config.GatewayConfig, logger *observability.Logger) *EvolutionGateway {
	return &EvolutionGateway{
		baseURL:  strings.TrimRight(cfg.EvolutionAPIURL, "/"),
		apiKey:   cfg.EvolutionAPIKey,
		instance: cfg.EvolutionInstance,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type evolutionSendRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type evolutionSendResponse struct {
	Key struct {
		ID string `json:"id"`
	} `json:"key"`
}

// SendText posts a text message to the configured instance. The send
// counts as delivered only when the API answers 2xx with a message id.
func (g *EvolutionGateway) SendText(ctx context.Context, phone, text string) SendResult {
	body, err := json.Marshal(evolutionSendRequest{Number: phone, Text: text})
	if err != nil {
		return SendResult{Error: fmt.Sprintf("failed to encode request: %v", err)}
	}

	url := fmt.Sprintf("%s/message/sendText/%s", g.baseURL, g.instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return SendResult{Error: fmt.Sprintf("failed to build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error(ctx, "evolution api request failed", err)
		return SendResult{Error: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return SendResult{Error: fmt.Sprintf("failed to read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SendResult{
			Response: string(respBody),
			Error:    fmt.Sprintf("evolution api returned status %d", resp.StatusCode),
		}
	}

	var parsed evolutionSendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || parsed.Key.ID == "" {
		return SendResult{
			Response: string(respBody),
			Error:    "evolution api response missing message id",
		}
	}

	return SendResult{
		Success:   true,
		MessageID: parsed.Key.ID,
		Response:  string(respBody),
	}
}
