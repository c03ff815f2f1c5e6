package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/pulsefit/fitcrm-backend/internal/services"
)

// HealthHandler reports service and dependency status.
type HealthHandler struct {
	db        *gorm.DB // nil when running on the memory store
	messenger services.Messenger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *gorm.DB, messenger services.Messenger) *HealthHandler {
	return &HealthHandler{db: db, messenger: messenger}
}

// Check is the monitoring endpoint.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "healthy"
	statusCode := fiber.StatusOK
	dbHealthy := true

	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil || sqlDB.Ping() != nil {
			status = "unhealthy"
			statusCode = fiber.StatusServiceUnavailable
			dbHealthy = false
		}
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status": status,
		"services": fiber.Map{
			"database":  dbHealthy,
			"messaging": h.messenger != nil,
		},
	})
}
