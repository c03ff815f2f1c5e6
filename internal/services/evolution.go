package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pulsefit/fitcrm-backend/internal/models"
)

// EvolutionClient talks to an Evolution API instance (self-hosted WhatsApp
// gateway). Authentication is the instance-level "apikey" header.
type EvolutionClient struct {
	client   *resty.Client
	instance string
}

// NewEvolutionClient creates a client for the given Evolution API deployment.
func NewEvolutionClient(baseURL, apiKey, instance string) (*EvolutionClient, error) {
	if baseURL == "" || apiKey == "" || instance == "" {
		return nil, fmt.Errorf("missing Evolution API credentials in environment variables")
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetHeader("apikey", apiKey)
	client.SetTimeout(15 * time.Second)

	return &EvolutionClient{client: client, instance: instance}, nil
}

func (e *EvolutionClient) Name() string { return "evolution" }

type evolutionSendRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type evolutionSendResponse struct {
	Key struct {
		ID string `json:"id"`
	} `json:"key"`
	Status  string `json:"status"`
	Message string `json:"message"` // error detail on non-2xx
}

// SendText dispatches a text message through the gateway and maps the
// returned ack to a local message status.
func (e *EvolutionClient) SendText(to, body string) (*SendResult, error) {
	// Evolution wants bare digits, no "+" prefix.
	number := strings.TrimPrefix(models.NormalizePhone(to), "+")

	var out evolutionSendResponse
	resp, err := e.client.R().
		SetBody(evolutionSendRequest{Number: number, Text: body}).
		SetResult(&out).
		SetError(&out).
		Post(fmt.Sprintf("/message/sendText/%s", e.instance))
	if err != nil {
		return nil, fmt.Errorf("evolution send failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("evolution send failed: %s (%s)", resp.Status(), out.Message)
	}

	return &SendResult{
		ProviderMessageID: out.Key.ID,
		Status:            MapEvolutionStatus(out.Status),
	}, nil
}

type evolutionStateResponse struct {
	Instance struct {
		InstanceName string `json:"instanceName"`
		State        string `json:"state"` // "open", "connecting", "close"
	} `json:"instance"`
}

// ConnectionState returns the gateway instance state ("open" means connected).
func (e *EvolutionClient) ConnectionState() (string, error) {
	var out evolutionStateResponse
	resp, err := e.client.R().
		SetResult(&out).
		Get(fmt.Sprintf("/instance/connectionState/%s", e.instance))
	if err != nil {
		return "", fmt.Errorf("evolution state check failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("evolution state check failed: %s", resp.Status())
	}
	return out.Instance.State, nil
}

// MapEvolutionStatus translates Evolution/Baileys ack values into the local
// message status enumeration.
func MapEvolutionStatus(status string) string {
	switch strings.ToUpper(status) {
	case "PENDING":
		return models.MessageStatusPending
	case "SERVER_ACK", "SENT":
		return models.MessageStatusSent
	case "DELIVERY_ACK", "DELIVERED":
		return models.MessageStatusDelivered
	case "READ", "PLAYED":
		return models.MessageStatusRead
	case "ERROR", "FAILED":
		return models.MessageStatusFailed
	default:
		return models.MessageStatusSent
	}
}
