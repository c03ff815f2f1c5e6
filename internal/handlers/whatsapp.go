package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/pulsefit/fitcrm-backend/internal/logger"
	"github.com/pulsefit/fitcrm-backend/internal/models"
	"github.com/pulsefit/fitcrm-backend/internal/services"
	"github.com/pulsefit/fitcrm-backend/internal/storage"
)

// WhatsAppHandler exposes the messaging REST surface and the gateway webhook.
type WhatsAppHandler struct {
	store           storage.Store
	whatsappService *services.WhatsAppService
	verifyToken     string
}

// NewWhatsAppHandler creates a new WhatsApp handler.
func NewWhatsAppHandler(store storage.Store, whatsappService *services.WhatsAppService, verifyToken string) *WhatsAppHandler {
	return &WhatsAppHandler{
		store:           store,
		whatsappService: whatsappService,
		verifyToken:     verifyToken,
	}
}

// VerifyWebhook answers the Meta-style GET subscription handshake.
func (h *WhatsAppHandler) VerifyWebhook(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == h.verifyToken {
		return c.SendString(challenge)
	}
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error": "Verification failed",
	})
}

// evolutionWebhookEvent is the Evolution API event envelope.
type evolutionWebhookEvent struct {
	Event    string `json:"event"`
	Instance string `json:"instance"`
	Data     struct {
		Key struct {
			RemoteJid string `json:"remoteJid"`
			FromMe    bool   `json:"fromMe"`
			ID        string `json:"id"`
		} `json:"key"`
		PushName string `json:"pushName"`
		Message  struct {
			Conversation string `json:"conversation"`
		} `json:"message"`
		MessageTimestamp int64  `json:"messageTimestamp"`
		KeyID            string `json:"keyId"`  // messages.update
		Status           string `json:"status"` // messages.update
	} `json:"data"`
}

// HandleWebhook processes gateway event deliveries. Unknown or malformed
// events are acked with 200 so the gateway does not retry them forever.
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var event evolutionWebhookEvent
	if err := c.BodyParser(&event); err != nil {
		logger.Log.WithError(err).Warn("Unparseable webhook payload")
		return c.SendStatus(fiber.StatusOK)
	}

	switch event.Event {
	case "messages.upsert":
		if event.Data.Key.FromMe || event.Data.Message.Conversation == "" {
			// Echoes of our own sends and non-text payloads are ignored.
			return c.SendStatus(fiber.StatusOK)
		}
		phone := jidToPhone(event.Data.Key.RemoteJid)
		if phone == "" {
			return c.SendStatus(fiber.StatusOK)
		}
		ts := time.Unix(event.Data.MessageTimestamp, 0)
		if event.Data.MessageTimestamp == 0 {
			ts = time.Now()
		}
		msg, err := h.whatsappService.ProcessInbound(
			phone, event.Data.PushName, event.Data.Key.ID, event.Data.Message.Conversation, ts)
		if errors.Is(err, services.ErrLeadCreationDisabled) {
			// Permanent for this sender; ack so the gateway stops redelivering.
			logger.Log.WithField("phone", phone).Info("Dropped inbound message from unknown sender")
			return c.SendStatus(fiber.StatusOK)
		}
		if err != nil {
			logger.Log.WithError(err).WithField("phone", phone).Error("Failed to process inbound message")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to process message",
			})
		}
		logger.Log.WithFields(logrus.Fields{
			"lead_id":    msg.LeadID,
			"message_id": msg.ID,
		}).Info("Inbound WhatsApp message recorded")

	case "messages.update":
		providerID := event.Data.KeyID
		if providerID == "" {
			providerID = event.Data.Key.ID
		}
		if err := h.whatsappService.ProcessStatusUpdate(providerID, event.Data.Status); err != nil {
			logger.Log.WithError(err).Warn("Failed to apply message status update")
		}

	default:
		logger.Log.WithField("event", event.Event).Debug("Ignoring webhook event")
	}

	return c.SendStatus(fiber.StatusOK)
}

// SendMessage dispatches an outbound message to a lead.
func (h *WhatsAppHandler) SendMessage(c *fiber.Ctx) error {
	var req struct {
		LeadID  uint   `json:"lead_id"`
		Phone   string `json:"phone"`
		Message string `json:"message" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message text is required",
		})
	}
	if req.LeadID == 0 && req.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Either lead_id or phone is required",
		})
	}

	var lead *models.Lead
	var err error
	if req.LeadID != 0 {
		lead, err = h.store.GetLead(req.LeadID)
	} else {
		lead, err = h.store.GetLeadByPhone(req.Phone)
	}
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lead not found",
		})
	}

	var sentBy uint
	if user, ok := c.Locals("user").(*models.User); ok {
		sentBy = user.ID
	}

	msg, err := h.whatsappService.Send(lead, req.Message, sentBy)
	if errors.Is(err, services.ErrMessagingDisabled) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "WhatsApp messaging is disabled",
		})
	}
	if err != nil {
		// The failed message row (if any) is included so the client can show it.
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to deliver message",
			"message": msg,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// ListMessages returns the conversation log, usually scoped to one lead.
func (h *WhatsAppHandler) ListMessages(c *fiber.Ctx) error {
	filter := &models.MessageFilter{
		LeadID:    uint(c.QueryInt("lead_id", 0)),
		Direction: c.Query("direction"),
		Limit:     c.QueryInt("limit", 200),
	}
	msgs, err := h.store.ListMessages(filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch messages",
		})
	}
	return c.JSON(fiber.Map{"messages": msgs, "count": len(msgs)})
}

// Status proxies the gateway connection state.
func (h *WhatsAppHandler) Status(c *fiber.Ctx) error {
	messenger := h.whatsappService.Messenger()
	if messenger == nil {
		return c.JSON(fiber.Map{"configured": false, "state": "unconfigured"})
	}
	state, err := messenger.ConnectionState()
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to reach messaging gateway",
		})
	}
	return c.JSON(fiber.Map{
		"configured": true,
		"provider":   messenger.Name(),
		"state":      state,
		"connected":  state == "open",
	})
}

// GetSettings returns gateway settings with secrets omitted.
func (h *WhatsAppHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.store.GetWhatsAppSettings()
	if errors.Is(err, storage.ErrNotFound) {
		return c.JSON(&models.WhatsAppSettings{Enabled: true, AutoCreateLeads: true})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch settings",
		})
	}
	return c.JSON(settings)
}

// UpdateSettings patches the gateway settings (admin only, wired in routes).
func (h *WhatsAppHandler) UpdateSettings(c *fiber.Ctx) error {
	var req models.SettingsUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	settings, err := h.store.GetWhatsAppSettings()
	if errors.Is(err, storage.ErrNotFound) {
		settings = &models.WhatsAppSettings{Enabled: true, AutoCreateLeads: true}
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch settings",
		})
	}

	if req.Provider != nil {
		settings.Provider = *req.Provider
	}
	if req.InstanceName != nil {
		settings.InstanceName = *req.InstanceName
	}
	if req.APIURL != nil {
		settings.APIURL = *req.APIURL
	}
	if req.APIKey != nil {
		settings.APIKey = *req.APIKey
	}
	if req.WebhookVerifyToken != nil {
		settings.WebhookVerifyToken = *req.WebhookVerifyToken
	}
	if req.Enabled != nil {
		settings.Enabled = *req.Enabled
	}
	if req.AutoCreateLeads != nil {
		settings.AutoCreateLeads = *req.AutoCreateLeads
	}

	if err := h.store.SaveWhatsAppSettings(settings); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save settings",
		})
	}
	return c.JSON(settings)
}

// jidToPhone maps "5511999999999@s.whatsapp.net" to "+5511999999999".
// Group jids (@g.us) are not conversations with a lead.
func jidToPhone(jid string) string {
	if jid == "" || strings.HasSuffix(jid, "@g.us") {
		return ""
	}
	number := jid
	if i := strings.Index(jid, "@"); i >= 0 {
		number = jid[:i]
	}
	if number == "" {
		return ""
	}
	return models.NormalizePhone(number)
}
