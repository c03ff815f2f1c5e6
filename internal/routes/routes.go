package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/pulsefit/fitcrm-backend/internal/config"
	"github.com/pulsefit/fitcrm-backend/internal/handlers"
	"github.com/pulsefit/fitcrm-backend/internal/logger"
	"github.com/pulsefit/fitcrm-backend/internal/middleware"
	"github.com/pulsefit/fitcrm-backend/internal/models"
	"github.com/pulsefit/fitcrm-backend/internal/services"
	"github.com/pulsefit/fitcrm-backend/internal/storage"
)

// SetupRoutes configures all API routes.
func SetupRoutes(app *fiber.App, cfg *config.AppConfig, store storage.Store, db *gorm.DB,
	whatsappService *services.WhatsAppService, weather *services.WeatherClient) {

	authHandler := handlers.NewAuthHandler(store, cfg.JWTSecret)
	userHandler := handlers.NewUserHandler(store)
	leadHandler := handlers.NewLeadHandler(store)
	sessionHandler := handlers.NewSessionHandler(store)
	taskHandler := handlers.NewTaskHandler(store)
	whatsappHandler := handlers.NewWhatsAppHandler(store, whatsappService, cfg.WebhookVerifyToken)
	statsHandler := handlers.NewStatsHandler(store)
	auditHandler := handlers.NewAuditHandler(store)
	weatherHandler := handlers.NewWeatherHandler(weather)
	reportHandler := handlers.NewReportHandler(store)
	healthHandler := handlers.NewHealthHandler(db, whatsappService.Messenger())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "FitCRM Backend",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"health":  "/health",
				"api":     "/api",
				"webhook": "/webhook/whatsapp",
			},
		})
	})
	app.Get("/health", healthHandler.Check)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")
	webhooks.Get("/whatsapp", whatsappHandler.VerifyWebhook)
	if cfg.Environment == "development" {
		// ngrok and friends: no shared-secret token on local deliveries
		logger.Log.Warn("WhatsApp webhook token validation DISABLED for development")
		webhooks.Post("/whatsapp", whatsappHandler.HandleWebhook)
	} else {
		webhooks.Post("/whatsapp", middleware.ValidateWebhookToken(cfg.WebhookVerifyToken), whatsappHandler.HandleWebhook)
	}

	// ========== API ROUTES ==========
	api := app.Group("/api")

	// Public: login and the website intake form
	api.Post("/auth/login", authHandler.Login)
	api.Post("/leads/intake", leadHandler.Intake)

	// Everything below requires a bearer token
	api.Use(middleware.Protected(store, cfg.JWTSecret))
	api.Use(middleware.AuditLogger(store))

	api.Get("/auth/me", authHandler.Me)

	leads := api.Group("/leads")
	leads.Post("/", leadHandler.Create)
	leads.Get("/", leadHandler.List)
	leads.Get("/:id", leadHandler.Get)
	leads.Patch("/:id", leadHandler.Update)
	leads.Post("/:id/convert", leadHandler.Convert)
	leads.Delete("/:id", middleware.RequireRole(models.RoleAdmin), leadHandler.Delete)

	sessions := api.Group("/sessions")
	sessions.Post("/", sessionHandler.Create)
	sessions.Get("/", sessionHandler.List)
	sessions.Get("/:id", sessionHandler.Get)
	sessions.Patch("/:id", sessionHandler.Update)
	sessions.Post("/:id/complete", sessionHandler.Complete)
	sessions.Post("/:id/cancel", sessionHandler.Cancel)
	sessions.Delete("/:id", middleware.RequireRole(models.RoleAdmin), sessionHandler.Delete)

	tasks := api.Group("/tasks")
	tasks.Post("/", taskHandler.Create)
	tasks.Get("/", taskHandler.List)
	tasks.Get("/:id", taskHandler.Get)
	tasks.Patch("/:id", taskHandler.Update)
	tasks.Delete("/:id", taskHandler.Delete)
	tasks.Post("/:id/comments", taskHandler.AddComment)
	tasks.Get("/:id/comments", taskHandler.ListComments)

	whatsapp := api.Group("/whatsapp")
	whatsapp.Post("/send", whatsappHandler.SendMessage)
	whatsapp.Get("/messages", whatsappHandler.ListMessages)
	whatsapp.Get("/status", whatsappHandler.Status)
	whatsapp.Get("/settings", middleware.RequireRole(models.RoleAdmin), whatsappHandler.GetSettings)
	whatsapp.Put("/settings", middleware.RequireRole(models.RoleAdmin), whatsappHandler.UpdateSettings)

	api.Get("/stats", statsHandler.Get)
	api.Get("/weather", weatherHandler.Get)
	api.Get("/audit-log", middleware.RequireRole(models.RoleAdmin), auditHandler.List)
	api.Get("/reports/sessions/export", middleware.RequireRole(models.RoleAdmin), reportHandler.ExportSessions)

	users := api.Group("/users", middleware.RequireRole(models.RoleAdmin))
	users.Post("/", userHandler.Create)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.Get)
	users.Patch("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)
}
