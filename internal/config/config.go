package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the service.
type AppConfig struct {
	Port        string
	Environment string
	LogLevel    string

	// Database
	DBHost         string
	DBUser         string
	DBPass         string
	DBName         string
	DBPort         string
	UseMemoryStore bool

	// Auth
	JWTSecret string

	// Messaging provider selection: "evolution" (default) or "twilio"
	MessagingProvider string

	// Evolution API gateway
	EvolutionURL      string
	EvolutionAPIKey   string
	EvolutionInstance string

	// Twilio fallback provider
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string

	// Webhook verification (Meta-style handshake + shared secret on POST)
	WebhookVerifyToken string

	// Scheduled jobs
	CronSpecSessionReminders string
	CronSpecLeadFollowUp     string

	// Weather lookup
	WeatherAPIURL string
}

// Load reads configuration from environment variables and .env file (if present).
// godotenv.Load does not override variables already set in the environment.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.Port = getEnv("PORT", "8080")
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))

	cfg.DBHost = getEnv("DB_HOST", "localhost")
	cfg.DBUser = getEnv("DB_USER", "postgres")
	cfg.DBPass = os.Getenv("DB_PASS")
	cfg.DBName = getEnv("DB_NAME", "fitcrm")
	cfg.DBPort = getEnv("DB_PORT", "5432")
	cfg.UseMemoryStore = os.Getenv("USE_MEMORY_STORE") == "true"

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if !cfg.UseMemoryStore {
			return nil, fmt.Errorf("JWT_SECRET is not set")
		}
		// Memory-store mode is only reachable from tests and local smoke runs.
		cfg.JWTSecret = "insecure-test-secret"
	}

	cfg.MessagingProvider = strings.ToLower(getEnv("MESSAGING_PROVIDER", "evolution"))
	if cfg.MessagingProvider != "evolution" && cfg.MessagingProvider != "twilio" {
		return nil, fmt.Errorf("invalid MESSAGING_PROVIDER %q (want evolution or twilio)", cfg.MessagingProvider)
	}

	cfg.EvolutionURL = os.Getenv("EVOLUTION_API_URL")
	cfg.EvolutionAPIKey = os.Getenv("EVOLUTION_API_KEY")
	cfg.EvolutionInstance = getEnv("EVOLUTION_INSTANCE", "fitcrm")

	cfg.TwilioAccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.TwilioAuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.TwilioWhatsAppFrom = os.Getenv("TWILIO_WHATSAPP_FROM")

	cfg.WebhookVerifyToken = os.Getenv("WEBHOOK_VERIFY_TOKEN")

	cfg.CronSpecSessionReminders = getEnv("CRON_SPEC_SESSION_REMINDERS", "0 * * * *")
	cfg.CronSpecLeadFollowUp = getEnv("CRON_SPEC_LEAD_FOLLOWUP", "0 9 * * *")

	cfg.WeatherAPIURL = getEnv("WEATHER_API_URL", "https://api.open-meteo.com/v1")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
