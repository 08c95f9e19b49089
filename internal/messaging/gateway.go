package messaging

import "context"

// SendResult reports the outcome of one message send. Gateways never
// return a Go error; transport and provider failures are folded into
// Success and Error so the dispatcher treats every outcome uniformly.
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Response  string `json:"response,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Gateway sends a WhatsApp text message to a digits-only phone number
type Gateway interface {
	SendText(ctx context.Context, phone, text string) SendResult
}
