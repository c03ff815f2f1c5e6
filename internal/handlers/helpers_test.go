package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pulsefit/fitcrm-backend/internal/config"
	"github.com/pulsefit/fitcrm-backend/internal/models"
	"github.com/pulsefit/fitcrm-backend/internal/routes"
	"github.com/pulsefit/fitcrm-backend/internal/services"
	"github.com/pulsefit/fitcrm-backend/internal/storage"
)

const (
	testSecret      = "test-secret"
	testVerifyToken = "hook-token"
	testPassword    = "correct-horse"
)

// fakeMessenger records outbound sends instead of hitting a gateway.
type fakeMessenger struct {
	sent []fakeSend
	fail bool
}

type fakeSend struct {
	To   string
	Body string
}

func (f *fakeMessenger) Name() string { return "fake" }

func (f *fakeMessenger) SendText(to, body string) (*services.SendResult, error) {
	if f.fail {
		return nil, fmt.Errorf("gateway unreachable")
	}
	f.sent = append(f.sent, fakeSend{To: to, Body: body})
	return &services.SendResult{
		ProviderMessageID: fmt.Sprintf("FAKE%d", len(f.sent)),
		Status:            models.MessageStatusSent,
	}, nil
}

func (f *fakeMessenger) ConnectionState() (string, error) { return "open", nil }

type testEnv struct {
	app       *fiber.App
	store     *storage.MemoryStore
	messenger *fakeMessenger
	admin     *models.User
	trainer   *models.User
}

func setupEnv(t *testing.T) *testEnv {
	return setupEnvWithWeather(t, "http://127.0.0.1:0")
}

func setupEnvWithWeather(t *testing.T, weatherURL string) *testEnv {
	t.Helper()

	store := storage.NewMemoryStore()
	messenger := &fakeMessenger{}
	cfg := &config.AppConfig{
		Environment:        "development",
		JWTSecret:          testSecret,
		WebhookVerifyToken: testVerifyToken,
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	whatsappService := services.NewWhatsAppService(store, messenger)
	weather := services.NewWeatherClient(weatherURL)
	routes.SetupRoutes(app, cfg, store, nil, whatsappService, weather)

	env := &testEnv{app: app, store: store, messenger: messenger}
	env.admin = env.createUser(t, "Ana Admin", "ana@studio.test", models.RoleAdmin)
	env.trainer = env.createUser(t, "Tom Trainer", "tom@studio.test", models.RoleTrainer)
	return env
}

func (e *testEnv) createUser(t *testing.T, name, email, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user, err := e.store.CreateUser(&models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	resp := e.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func (e *testEnv) adminToken(t *testing.T) string   { return e.login(t, e.admin.Email) }
func (e *testEnv) trainerToken(t *testing.T) string { return e.login(t, e.trainer.Email) }

func (e *testEnv) request(t *testing.T, method, path, token string, payload interface{}) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func (e *testEnv) createLead(t *testing.T, name, phone string) *models.Lead {
	t.Helper()
	lead, err := e.store.CreateLead(&models.Lead{Name: name, Phone: phone})
	require.NoError(t, err)
	return lead
}
