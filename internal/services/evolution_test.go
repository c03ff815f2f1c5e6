package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsefit/fitcrm-backend/internal/models"
)

func TestNewEvolutionClientRequiresCredentials(t *testing.T) {
	_, err := NewEvolutionClient("", "key", "fitcrm")
	assert.Error(t, err)
	_, err = NewEvolutionClient("http://gateway", "", "fitcrm")
	assert.Error(t, err)
	_, err = NewEvolutionClient("http://gateway", "key", "")
	assert.Error(t, err)
}

func TestEvolutionSendText(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/message/sendText/fitcrm", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("apikey"))

		var req struct {
			Number string `json:"number"`
			Text   string `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "5511912345678", req.Number, "gateway wants bare digits")
		assert.Equal(t, "Hello!", req.Text)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"key":{"id":"WAMID-42"},"status":"PENDING"}`))
	}))
	defer gateway.Close()

	client, err := NewEvolutionClient(gateway.URL, "secret-key", "fitcrm")
	require.NoError(t, err)

	result, err := client.SendText("+55 11 91234-5678", "Hello!")
	require.NoError(t, err)
	assert.Equal(t, "WAMID-42", result.ProviderMessageID)
	assert.Equal(t, models.MessageStatusPending, result.Status)
}

func TestEvolutionSendTextGatewayError(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"number not on whatsapp"}`))
	}))
	defer gateway.Close()

	client, err := NewEvolutionClient(gateway.URL, "secret-key", "fitcrm")
	require.NoError(t, err)

	_, err = client.SendText("+5511912345678", "Hello!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "number not on whatsapp")
}

func TestEvolutionConnectionState(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/instance/connectionState/fitcrm", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"instance":{"instanceName":"fitcrm","state":"open"}}`))
	}))
	defer gateway.Close()

	client, err := NewEvolutionClient(gateway.URL, "secret-key", "fitcrm")
	require.NoError(t, err)

	state, err := client.ConnectionState()
	require.NoError(t, err)
	assert.Equal(t, "open", state)
}

func TestMapEvolutionStatus(t *testing.T) {
	cases := map[string]string{
		"PENDING":      models.MessageStatusPending,
		"SERVER_ACK":   models.MessageStatusSent,
		"DELIVERY_ACK": models.MessageStatusDelivered,
		"READ":         models.MessageStatusRead,
		"PLAYED":       models.MessageStatusRead,
		"ERROR":        models.MessageStatusFailed,
		"read":         models.MessageStatusRead,
		"SOMETHING":    models.MessageStatusSent,
	}
	for in, want := range cases {
		assert.Equal(t, want, MapEvolutionStatus(in), "status %q", in)
	}
}
