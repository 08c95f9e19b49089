package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	openaiOption "github.com/openai/openai-go/option"

	"autosales/internal/observability"
)

// systemPrompt steers the model toward short WhatsApp collection
// messages using the placeholder vocabulary the renderer understands.
const systemPrompt = `Você escreve mensagens curtas de cobrança para WhatsApp em português brasileiro.
Use um tom educado e direto. Use os placeholders {nome}, {valor}, {dataVencimento} e {diasAtraso} onde fizer sentido.
Responda apenas com o texto da mensagem, sem explicações.`

// Client wraps the OpenAI API for template suggestions
type Client struct {
	client openai.Client
	logger *observability.Logger
}

func NewClient(apiKey string, logger *observability.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return &Client{
		client: openai.NewClient(openaiOption.WithAPIKey(apiKey)),
		logger: logger,
	}, nil
}

// SuggestTemplate drafts a collection message body from a free-form
// description of the desired tone and situation.
func (c *Client) SuggestTemplate(ctx context.Context, description string) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModelGPT4oMini,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(description),
		},
	})
	if err != nil {
		c.logger.Error(ctx, "failed to generate template suggestion", err)
		return "", fmt.Errorf("failed to generate template suggestion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("template suggestion response has no choices")
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("template suggestion response is empty")
	}

	c.logger.Info(ctx, "generated template suggestion")
	return content, nil
}
