package messaging

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"autosales/internal/config"
	"autosales/internal/observability"
)

// TwilioGateway sends WhatsApp messages through the Twilio Messages API
type TwilioGateway struct {
	client *twilio.RestClient
	from   string
	logger *observability.Logger
}

func NewTwilioGateway(cfg config.GatewayConfig, logger *observability.Logger) *TwilioGateway {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &TwilioGateway{
		client: client,
		from:   cfg.TwilioFromNumber,
		logger: logger,
	}
}

// SendText delivers a WhatsApp text through Twilio. The send counts as
// delivered only when Twilio assigns the message a SID.
func (g *TwilioGateway) SendText(ctx context.Context, phone, text string) SendResult {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo("whatsapp:" + e164Brazil(phone))
	params.SetFrom("whatsapp:" + g.from)
	params.SetBody(text)

	resp, err := g.client.Api.CreateMessage(params)
	if err != nil {
		g.logger.Error(ctx, "twilio api request failed", err)
		return SendResult{Error: fmt.Sprintf("request failed: %v", err)}
	}
	if resp.Sid == nil || *resp.Sid == "" {
		return SendResult{Error: "twilio response missing message sid"}
	}

	result := SendResult{
		Success:   true,
		MessageID: *resp.Sid,
	}
	if resp.Status != nil {
		result.Response = *resp.Status
	}
	return result
}

// e164Brazil turns a digits-only national number into E.164 form
func e164Brazil(phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	if strings.HasPrefix(phone, "55") && len(phone) > 11 {
		return "+" + phone
	}
	return "+55" + phone
}
