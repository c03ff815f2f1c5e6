package services

import (
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/pulsefit/fitcrm-backend/internal/models"
)

// TwilioProvider is the fallback Messenger for studios that route WhatsApp
// through Twilio instead of a self-hosted Evolution instance.
type TwilioProvider struct {
	client *twilio.RestClient
	from   string // "whatsapp:+14155238886"
}

// NewTwilioProvider creates a Twilio-backed messenger.
func NewTwilioProvider(accountSID, authToken, from string) (*TwilioProvider, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioProvider{client: client, from: from}, nil
}

func (t *TwilioProvider) Name() string { return "twilio" }

// SendText sends a WhatsApp message via Twilio.
func (t *TwilioProvider) SendText(to, body string) (*SendResult, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", models.NormalizePhone(to)))
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return nil, fmt.Errorf("twilio send failed: %w", err)
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		return nil, fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, *resp.ErrorMessage)
	}

	result := &SendResult{Status: models.MessageStatusSent}
	if resp.Sid != nil {
		result.ProviderMessageID = *resp.Sid
	}
	return result, nil
}

// ConnectionState reports "open" when the client is configured; Twilio has no
// instance session to inspect.
func (t *TwilioProvider) ConnectionState() (string, error) {
	if t.client == nil {
		return "close", nil
	}
	return "open", nil
}
