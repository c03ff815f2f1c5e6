package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsefit/fitcrm-backend/internal/models"
)

func TestUserRoutesAdminOnly(t *testing.T) {
	env := setupEnv(t)
	token := env.trainerToken(t)

	resp := env.request(t, http.MethodGet, "/api/users", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/users", token, fiber.Map{
		"name":     "Sneaky",
		"email":    "sneaky@studio.test",
		"password": "password123",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateUser(t *testing.T) {
	env := setupEnv(t)
	token := env.adminToken(t)

	resp := env.request(t, http.MethodPost, "/api/users", token, fiber.Map{
		"name":     "Nina Coach",
		"email":    "Nina@Studio.Test",
		"password": "password123",
		"role":     models.RoleTrainer,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user models.User
	decodeBody(t, resp, &user)
	assert.Equal(t, "nina@studio.test", user.Email, "email should be lowercased")
	assert.Equal(t, models.RoleTrainer, user.Role)
	assert.True(t, user.IsActive)

	// The password hash never leaves the API.
	raw := env.request(t, http.MethodGet, "/api/users/"+itoa(user.ID), token, nil)
	require.Equal(t, http.StatusOK, raw.StatusCode)
	var asMap map[string]interface{}
	decodeBody(t, raw, &asMap)
	_, leaked := asMap["PasswordHash"]
	assert.False(t, leaked)
	_, leaked = asMap["password_hash"]
	assert.False(t, leaked)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	env := setupEnv(t)
	token := env.adminToken(t)

	resp := env.request(t, http.MethodPost, "/api/users", token, fiber.Map{
		"name":     "Tom Clone",
		"email":    "tom@studio.test",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUpdateUserRoleAndActive(t *testing.T) {
	env := setupEnv(t)
	token := env.adminToken(t)

	resp := env.request(t, http.MethodPatch, "/api/users/"+itoa(env.trainer.ID), token, fiber.Map{
		"role":      models.RoleAdmin,
		"is_active": false,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.User
	decodeBody(t, resp, &updated)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.False(t, updated.IsActive)

	resp = env.request(t, http.MethodPatch, "/api/users/"+itoa(env.trainer.ID), token, fiber.Map{
		"role": "superuser",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeactivatedUserTokenRejected(t *testing.T) {
	env := setupEnv(t)
	trainerToken := env.trainerToken(t)

	env.trainer.IsActive = false
	require.NoError(t, env.store.UpdateUser(env.trainer))

	resp := env.request(t, http.MethodGet, "/api/auth/me", trainerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "a valid token for a deactivated account must stop working")
}

func TestDeleteUserSelfRejected(t *testing.T) {
	env := setupEnv(t)
	token := env.adminToken(t)

	resp := env.request(t, http.MethodDelete, "/api/users/"+itoa(env.admin.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(t, http.MethodDelete, "/api/users/"+itoa(env.trainer.ID), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
