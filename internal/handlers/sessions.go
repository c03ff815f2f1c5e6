package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pulsefit/fitcrm-backend/internal/models"
	"github.com/pulsefit/fitcrm-backend/internal/storage"
)

// SessionHandler schedules and manages training sessions.
type SessionHandler struct {
	store storage.Store
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(store storage.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

// Create schedules a session after checking the trainer's calendar.
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req models.SessionCreate
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

	if _, err := h.store.GetLead(req.LeadID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lead not found",
		})
	}
	trainer, err := h.store.GetUser(req.TrainerID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Trainer not found",
		})
	}
	if !trainer.IsActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Trainer is deactivated",
		})
	}

	session := &models.Session{
		LeadID:    req.LeadID,
		TrainerID: req.TrainerID,
		StartsAt:  req.StartsAt,
		Duration:  req.Duration,
		Location:  req.Location,
		Type:      req.Type,
		Notes:     req.Notes,
		Price:     req.Price,
	}
	if session.Duration == 0 {
		session.Duration = 60
	}

	conflict, err := h.hasTrainerConflict(session)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check trainer availability",
		})
	}
	if conflict {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Trainer already has a session in this time slot",
		})
	}

	created, err := h.store.CreateSession(session)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create session",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// List returns sessions matching the query filters.
func (h *SessionHandler) List(c *fiber.Ctx) error {
	filter := &models.SessionFilter{
		TrainerID: uint(c.QueryInt("trainer_id", 0)),
		LeadID:    uint(c.QueryInt("lead_id", 0)),
		Status:    c.Query("status"),
	}
	if filter.Status != "" && !models.ValidSessionStatus(filter.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid status filter",
		})
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid from date (want RFC3339)",
			})
		}
		filter.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid to date (want RFC3339)",
			})
		}
		filter.To = t
	}

	sessions, err := h.store.ListSessions(filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch sessions",
		})
	}
	return c.JSON(fiber.Map{"sessions": sessions, "count": len(sessions)})
}

// Get returns one session.
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	session, err := h.store.GetSession(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}
	return c.JSON(session)
}

// Update reschedules or edits a session.
func (h *SessionHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	session, err := h.store.GetSession(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}
	if session.Status != models.SessionStatusScheduled {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Only scheduled sessions can be edited",
		})
	}

	var req models.SessionUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	reschedule := false
	if req.StartsAt != nil {
		session.StartsAt = *req.StartsAt
		reschedule = true
	}
	if req.Duration != nil {
		if *req.Duration < 15 || *req.Duration > 240 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Duration must be between 15 and 240 minutes",
			})
		}
		session.Duration = *req.Duration
		reschedule = true
	}
	if req.Location != nil {
		session.Location = *req.Location
	}
	if req.Notes != nil {
		session.Notes = *req.Notes
	}
	if req.Price != nil {
		session.Price = *req.Price
	}

	if reschedule {
		// Moving the slot re-arms the reminder.
		session.ReminderSentAt = nil

		conflict, err := h.hasTrainerConflict(session)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to check trainer availability",
			})
		}
		if conflict {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Trainer already has a session in this time slot",
			})
		}
	}

	if err := h.store.UpdateSession(session); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update session",
		})
	}
	return c.JSON(session)
}

// Complete marks a scheduled session as done (or no-show).
func (h *SessionHandler) Complete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	session, err := h.store.GetSession(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}
	if session.Status != models.SessionStatusScheduled {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Only scheduled sessions can be completed",
		})
	}

	var req struct {
		NoShow bool   `json:"no_show"`
		Notes  string `json:"notes"`
	}
	// Body is optional for a plain completion.
	_ = c.BodyParser(&req)

	session.Status = models.SessionStatusCompleted
	if req.NoShow {
		session.Status = models.SessionStatusNoShow
	}
	if req.Notes != "" {
		session.Notes = req.Notes
	}

	if err := h.store.UpdateSession(session); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update session",
		})
	}
	return c.JSON(session)
}

// Cancel cancels a scheduled session.
func (h *SessionHandler) Cancel(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	session, err := h.store.GetSession(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}
	if session.Status != models.SessionStatusScheduled {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Only scheduled sessions can be cancelled",
		})
	}

	session.Status = models.SessionStatusCancelled
	if err := h.store.UpdateSession(session); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update session",
		})
	}
	return c.JSON(session)
}

// Delete removes a session record entirely (admin only, wired in routes).
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.store.DeleteSession(id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Session deleted"})
}

func (h *SessionHandler) hasTrainerConflict(session *models.Session) (bool, error) {
	others, err := h.store.GetTrainerSessionsInRange(session.TrainerID, session.StartsAt, session.EndsAt())
	if err != nil {
		return false, err
	}
	for _, other := range others {
		if other.ID == session.ID {
			continue
		}
		if session.Overlaps(other) {
			return true, nil
		}
	}
	return false, nil
}
