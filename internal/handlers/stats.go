package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pulsefit/fitcrm-backend/internal/models"
	"github.com/pulsefit/fitcrm-backend/internal/storage"
)

// StatsHandler serves the dashboard aggregate counts.
type StatsHandler struct {
	store storage.Store
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(store storage.Store) *StatsHandler {
	return &StatsHandler{store: store}
}

// Get returns lead, session, task and message counts.
func (h *StatsHandler) Get(c *fiber.Ctx) error {
	stats := &models.DashboardStats{}

	leadCounts, err := h.store.CountLeadsByStatus()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute stats",
		})
	}
	stats.LeadsByStatus = leadCounts
	for _, n := range leadCounts {
		stats.LeadsTotal += n
	}

	sessionCounts, err := h.store.CountSessionsByStatus()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute stats",
		})
	}
	stats.SessionsByStatus = sessionCounts

	now := time.Now()
	upcoming, err := h.store.CountUpcomingSessions(now, now.AddDate(0, 0, 7))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute stats",
		})
	}
	stats.SessionsUpcoming = upcoming

	open, overdue, err := h.store.CountOpenTasks()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute stats",
		})
	}
	stats.TasksOpen = open
	stats.TasksOverdue = overdue

	msgCounts, err := h.store.CountMessagesByDirection()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute stats",
		})
	}
	stats.MessagesInbound = msgCounts[models.MessageDirectionInbound]
	stats.MessagesOutbound = msgCounts[models.MessageDirectionOutbound]

	return c.JSON(stats)
}
