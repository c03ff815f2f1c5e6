package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pulsefit/fitcrm-backend/internal/models"
	"github.com/pulsefit/fitcrm-backend/internal/storage"
)

// LeadHandler handles lead intake and lifecycle.
type LeadHandler struct {
	store storage.Store
}

// NewLeadHandler creates a new lead handler.
func NewLeadHandler(store storage.Store) *LeadHandler {
	return &LeadHandler{store: store}
}

// Create adds a lead from the CRM UI. Duplicate phone numbers are a conflict.
func (h *LeadHandler) Create(c *fiber.Ctx) error {
	var req models.LeadCreate
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

	lead, err := h.store.CreateLead(&models.Lead{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Source:  req.Source,
		Goal:    req.Goal,
		Notes:   req.Notes,
		OwnerID: req.OwnerID,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A lead with this phone number already exists",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create lead",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(lead)
}

// Intake is the unauthenticated endpoint behind the public signup form.
// A repeated submission returns the existing lead instead of failing.
func (h *LeadHandler) Intake(c *fiber.Ctx) error {
	var req models.LeadCreate
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

	if existing, err := h.store.GetLeadByPhone(req.Phone); err == nil {
		return c.JSON(existing)
	}

	lead, err := h.store.CreateLead(&models.Lead{
		Name:   req.Name,
		Phone:  req.Phone,
		Email:  req.Email,
		Source: models.LeadSourceWebsite,
		Goal:   req.Goal,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create lead",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(lead)
}

// List returns leads matching the query filters.
func (h *LeadHandler) List(c *fiber.Ctx) error {
	filter := &models.LeadFilter{
		Status: c.Query("status"),
		Source: c.Query("source"),
		Search: c.Query("search"),
		Limit:  c.QueryInt("limit", 100),
		Offset: c.QueryInt("offset", 0),
	}
	if filter.Status != "" && !models.ValidLeadStatus(filter.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid status filter",
		})
	}

	leads, err := h.store.ListLeads(filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch leads",
		})
	}
	return c.JSON(fiber.Map{"leads": leads, "count": len(leads)})
}

// Get returns one lead.
func (h *LeadHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	lead, err := h.store.GetLead(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lead not found",
		})
	}
	return c.JSON(lead)
}

// Update patches a lead.
func (h *LeadHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	lead, err := h.store.GetLead(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lead not found",
		})
	}

	var req models.LeadUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Status != nil {
		if !models.ValidLeadStatus(*req.Status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid status",
			})
		}
		lead.Status = *req.Status
	}
	if req.Name != nil {
		lead.Name = *req.Name
	}
	if req.Email != nil {
		lead.Email = *req.Email
	}
	if req.Goal != nil {
		lead.Goal = *req.Goal
	}
	if req.Notes != nil {
		lead.Notes = *req.Notes
	}
	if req.OwnerID != nil {
		lead.OwnerID = *req.OwnerID
	}

	if err := h.store.UpdateLead(lead); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update lead",
		})
	}
	return c.JSON(lead)
}

// Delete removes a lead (admin only, wired in routes).
func (h *LeadHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.store.DeleteLead(id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lead not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Lead deleted"})
}

// Convert marks a lead as a paying client.
func (h *LeadHandler) Convert(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	lead, err := h.store.GetLead(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lead not found",
		})
	}
	if lead.Status == models.LeadStatusConverted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Lead is already converted",
		})
	}

	now := time.Now()
	lead.Status = models.LeadStatusConverted
	lead.LastContactAt = &now
	if err := h.store.UpdateLead(lead); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to convert lead",
		})
	}
	return c.JSON(lead)
}
