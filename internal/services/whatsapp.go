package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pulsefit/fitcrm-backend/internal/logger"
	"github.com/pulsefit/fitcrm-backend/internal/models"
	"github.com/pulsefit/fitcrm-backend/internal/storage"
)

// ErrMessagingDisabled is returned when WhatsApp messaging is switched off in
// settings.
var ErrMessagingDisabled = errors.New("whatsapp messaging is disabled")

// ErrLeadCreationDisabled is returned for inbound messages from unknown
// numbers while lead auto-creation is off. Retrying cannot help, so callers
// should drop the message.
var ErrLeadCreationDisabled = errors.New("lead auto-creation is disabled")

// WhatsAppService ties the conversation log to leads: inbound webhook events
// become messages (and new leads), outbound sends go through the configured
// Messenger.
type WhatsAppService struct {
	store     storage.Store
	messenger Messenger
}

// NewWhatsAppService creates a new WhatsApp service.
func NewWhatsAppService(store storage.Store, messenger Messenger) *WhatsAppService {
	return &WhatsAppService{store: store, messenger: messenger}
}

// Messenger returns the underlying provider (nil when not configured).
func (s *WhatsAppService) Messenger() Messenger {
	return s.messenger
}

func (s *WhatsAppService) settings() *models.WhatsAppSettings {
	settings, err := s.store.GetWhatsAppSettings()
	if err != nil {
		// No settings row yet: enabled with lead auto-creation, matching the
		// behavior of a fresh install.
		return &models.WhatsAppSettings{Enabled: true, AutoCreateLeads: true}
	}
	return settings
}

// ProcessInbound records an incoming message and attaches it to a lead,
// creating the lead when the sender is unknown and auto-creation is on.
func (s *WhatsAppService) ProcessInbound(phone, senderName, providerID, body string, ts time.Time) (*models.WhatsAppMessage, error) {
	phone = models.NormalizePhone(phone)

	// Replays of the same provider message id are acked without a new row.
	if providerID != "" {
		if existing, err := s.store.GetMessageByProviderID(providerID); err == nil {
			return existing, nil
		}
	}

	lead, err := s.store.GetLeadByPhone(phone)
	if errors.Is(err, storage.ErrNotFound) {
		if !s.settings().AutoCreateLeads {
			return nil, fmt.Errorf("no lead for phone %s: %w", phone, ErrLeadCreationDisabled)
		}
		name := senderName
		if name == "" {
			name = phone
		}
		lead, err = s.store.CreateLead(&models.Lead{
			Name:   name,
			Phone:  phone,
			Source: models.LeadSourceWhatsApp,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to auto-create lead: %w", err)
		}
		logger.Log.WithFields(logrus.Fields{
			"lead_id": lead.ID,
			"phone":   phone,
		}).Info("Lead auto-created from inbound WhatsApp message")
	} else if err != nil {
		return nil, err
	}

	now := ts
	if now.IsZero() {
		now = time.Now()
	}
	lead.LastContactAt = &now
	if err := s.store.UpdateLead(lead); err != nil {
		logger.Log.WithError(err).Warn("Failed to stamp lead last contact")
	}

	msg := &models.WhatsAppMessage{
		LeadID:            lead.ID,
		Direction:         models.MessageDirectionInbound,
		Body:              body,
		ProviderMessageID: providerID,
		Status:            models.MessageStatusDelivered,
		Timestamp:         now,
	}
	return s.store.CreateMessage(msg)
}

// ProcessStatusUpdate applies a delivery receipt to the matching outbound
// message. Receipts for unknown messages are ignored.
func (s *WhatsAppService) ProcessStatusUpdate(providerID, providerStatus string) error {
	if providerID == "" {
		return nil
	}
	msg, err := s.store.GetMessageByProviderID(providerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	status := MapEvolutionStatus(providerStatus)
	// Receipts can arrive out of order; never regress read back to delivered.
	if msg.Status == models.MessageStatusRead && status != models.MessageStatusFailed {
		return nil
	}
	msg.Status = status
	return s.store.UpdateMessage(msg)
}

// Send dispatches an outbound message to the lead's phone. The message row is
// written even when the provider call fails so the conversation log stays
// complete.
func (s *WhatsAppService) Send(lead *models.Lead, body string, sentBy uint) (*models.WhatsAppMessage, error) {
	if !s.settings().Enabled {
		return nil, ErrMessagingDisabled
	}
	if s.messenger == nil {
		return nil, fmt.Errorf("no messaging provider configured")
	}

	msg := &models.WhatsAppMessage{
		LeadID:    lead.ID,
		Direction: models.MessageDirectionOutbound,
		Body:      body,
		SentByID:  sentBy,
		Timestamp: time.Now(),
	}

	result, sendErr := s.messenger.SendText(lead.Phone, body)
	if sendErr != nil {
		msg.Status = models.MessageStatusFailed
		if _, err := s.store.CreateMessage(msg); err != nil {
			logger.Log.WithError(err).Error("Failed to persist failed outbound message")
		}
		return msg, fmt.Errorf("send via %s failed: %w", s.messenger.Name(), sendErr)
	}

	msg.ProviderMessageID = result.ProviderMessageID
	msg.Status = result.Status

	stored, err := s.store.CreateMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("message sent but not persisted: %w", err)
	}

	now := msg.Timestamp
	lead.LastContactAt = &now
	if err := s.store.UpdateLead(lead); err != nil {
		logger.Log.WithError(err).Warn("Failed to stamp lead last contact")
	}

	return stored, nil
}
