package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pulsefit/fitcrm-backend/internal/storage"
)

// AuditHandler exposes the mutation audit trail (admin only).
type AuditHandler struct {
	store storage.Store
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(store storage.Store) *AuditHandler {
	return &AuditHandler{store: store}
}

// List returns the most recent audit entries, newest first.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	entries, err := h.store.ListAuditLogs(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch audit log",
		})
	}
	return c.JSON(fiber.Map{"entries": entries, "count": len(entries)})
}
