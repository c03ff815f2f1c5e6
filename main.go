package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pulsefit/fitcrm-backend/database"
	"github.com/pulsefit/fitcrm-backend/internal/config"
	"github.com/pulsefit/fitcrm-backend/internal/jobs"
	"github.com/pulsefit/fitcrm-backend/internal/logger"
	"github.com/pulsefit/fitcrm-backend/internal/models"
	"github.com/pulsefit/fitcrm-backend/internal/routes"
	"github.com/pulsefit/fitcrm-backend/internal/services"
	"github.com/pulsefit/fitcrm-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.Environment, cfg.LogLevel)

	// Initialize storage
	var store storage.Store
	var db *gorm.DB

	if cfg.UseMemoryStore {
		logger.Log.Warn("Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		if err := database.Connect(cfg); err != nil {
			logger.Log.Fatalf("Failed to connect to database: %v", err)
		}
		db = database.DB

		err := db.AutoMigrate(
			&models.User{},
			&models.Lead{},
			&models.Session{},
			&models.Task{},
			&models.TaskComment{},
			&models.WhatsAppMessage{},
			&models.WhatsAppSettings{},
			&models.AuditLogEntry{},
		)
		if err != nil {
			logger.Log.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Log.Info("Database migrations completed")

		store = storage.NewDatabaseStore(db)
	}
	storage.SetStore(store)

	seedAdmin(store)

	// Messaging provider
	var messenger services.Messenger
	switch cfg.MessagingProvider {
	case "twilio":
		provider, err := services.NewTwilioProvider(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom)
		if err != nil {
			logger.Log.WithError(err).Warn("Twilio not configured - WhatsApp features will be limited")
		} else {
			messenger = provider
			logger.Log.Info("Twilio messaging provider initialized")
		}
	default:
		client, err := services.NewEvolutionClient(cfg.EvolutionURL, cfg.EvolutionAPIKey, cfg.EvolutionInstance)
		if err != nil {
			logger.Log.WithError(err).Warn("Evolution API not configured - WhatsApp features will be limited")
		} else {
			messenger = client
			logger.Log.Info("Evolution API messaging provider initialized")
		}
	}

	whatsappService := services.NewWhatsAppService(store, messenger)
	weather := services.NewWeatherClient(cfg.WeatherAPIURL)

	// Scheduled jobs
	scheduler := jobs.NewScheduler(store, whatsappService, cfg.CronSpecSessionReminders, cfg.CronSpecLeadFollowUp)
	if err := scheduler.Start(); err != nil {
		logger.Log.Fatalf("Failed to start job scheduler: %v", err)
	}

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "FitCRM Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	routes.SetupRoutes(app, cfg, store, db, whatsappService, weather)

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Log.Info("Gracefully shutting down...")
		scheduler.Stop()
		_ = app.Shutdown()
	}()

	logger.Log.Infof("FitCRM Backend starting on port %s (env: %s)", cfg.Port, cfg.Environment)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Log.Fatalf("Server stopped: %v", err)
	}
}

// seedAdmin bootstraps the first admin account from ADMIN_EMAIL/ADMIN_PASSWORD
// when the user table is empty.
func seedAdmin(store storage.Store) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}

	users, err := store.GetAllUsers()
	if err != nil || len(users) > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash admin password")
		return
	}

	if _, err := store.CreateUser(&models.User{
		Name:         "Admin",
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}); err != nil {
		logger.Log.WithError(err).Error("Failed to seed admin user")
		return
	}
	logger.Log.WithField("email", email).Info("Seeded initial admin user")
}
