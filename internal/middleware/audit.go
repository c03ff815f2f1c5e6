package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pulsefit/fitcrm-backend/internal/logger"
	"github.com/pulsefit/fitcrm-backend/internal/models"
	"github.com/pulsefit/fitcrm-backend/internal/storage"
)

// AuditLogger records successful mutating API requests after the handler has
// run. Read requests and failed mutations are not audited.
func AuditLogger(store storage.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		default:
			return err
		}
		// A returned error has not been through the app ErrorHandler yet, so
		// the response status still reads 200 here.
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
		}
		if status >= fiber.StatusBadRequest {
			return err
		}

		path := c.Path()
		if !strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/api/auth/") {
			return err
		}

		entity, entityID := splitEntityPath(path)
		entry := &models.AuditLogEntry{
			Method:     c.Method(),
			Path:       path,
			Entity:     entity,
			EntityID:   entityID,
			Action:     actionForMethod(c.Method()),
			StatusCode: status,
			IP:         c.IP(),
			OccurredAt: time.Now(),
		}
		if user := CurrentUser(c); user != nil {
			entry.UserID = user.ID
			entry.UserEmail = user.Email
		}

		if auditErr := store.CreateAuditLog(entry); auditErr != nil {
			logger.Log.WithError(auditErr).Error("Failed to write audit log entry")
		}
		return err
	}
}

// splitEntityPath maps "/api/leads/3/convert" to ("leads", "3").
func splitEntityPath(path string) (string, string) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(path, "/api/"), "/"), "/")
	entity := parts[0]
	entityID := ""
	if len(parts) > 1 {
		entityID = parts[1]
	}
	return entity, entityID
}

func actionForMethod(method string) string {
	switch method {
	case fiber.MethodPost:
		return "create"
	case fiber.MethodPut, fiber.MethodPatch:
		return "update"
	case fiber.MethodDelete:
		return "delete"
	}
	return strings.ToLower(method)
}
