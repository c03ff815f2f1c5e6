package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsefit/fitcrm-backend/internal/models"
)

func sessionPayload(leadID, trainerID uint, startsAt time.Time, duration int) fiber.Map {
	return fiber.Map{
		"lead_id":    leadID,
		"trainer_id": trainerID,
		"starts_at":  startsAt.Format(time.RFC3339),
		"duration":   duration,
	}
}

func TestCreateSession(t *testing.T) {
	env := setupEnv(t)
	token := env.trainerToken(t)
	lead := env.createLead(t, "Maria Souza", "+5511912345678")
	startsAt := time.Now().Add(48 * time.Hour).Truncate(time.Minute)

	resp := env.request(t, http.MethodPost, "/api/sessions", token,
		sessionPayload(lead.ID, env.trainer.ID, startsAt, 0))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var session models.Session
	decodeBody(t, resp, &session)
	assert.Equal(t, models.SessionStatusScheduled, session.Status)
	assert.Equal(t, 60, session.Duration, "duration should default to 60 minutes")
	assert.Equal(t, models.SessionTypePersonal, session.Type)
}

func TestCreateSessionUnknownLeadOrTrainer(t *testing.T) {
	env := setupEnv(t)
	token := env.trainerToken(t)
	lead := env.createLead(t, "Maria Souza", "+5511912345678")
	startsAt := time.Now().Add(48 * time.Hour)

	resp := env.request(t, http.MethodPost, "/api/sessions", token,
		sessionPayload(9999, env.trainer.ID, startsAt, 60))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/sessions", token,
		sessionPayload(lead.ID, 9999, startsAt, 60))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateSessionTrainerConflict(t *testing.T) {
	env := setupEnv(t)
	token := env.trainerToken(t)
	lead := env.createLead(t, "Maria Souza", "+5511912345678")
	other := env.createLead(t, "Joao Lima", "+5511912345679")
	startsAt := time.Now().Add(48 * time.Hour).Truncate(time.Minute)

	resp := env.request(t, http.MethodPost, "/api/sessions", token,
		sessionPayload(lead.ID, env.trainer.ID, startsAt, 60))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Overlapping slot with the same trainer is rejected.
	resp = env.request(t, http.MethodPost, "/api/sessions", token,
		sessionPayload(other.ID, env.trainer.ID, startsAt.Add(30*time.Minute), 60))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Back-to-back is fine.
	resp = env.request(t, http.MethodPost, "/api/sessions", token,
		sessionPayload(other.ID, env.trainer.ID, startsAt.Add(60*time.Minute), 60))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// A different trainer can take the same slot.
	resp = env.request(t, http.MethodPost, "/api/sessions", token,
		sessionPayload(other.ID, env.admin.ID, startsAt, 60))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCancelledSessionFreesTheSlot(t *testing.T) {
	env := setupEnv(t)
	token := env.trainerToken(t)
	lead := env.createLead(t, "Maria Souza", "+5511912345678")
	startsAt := time.Now().Add(48 * time.Hour).Truncate(time.Minute)

	resp := env.request(t, http.MethodPost, "/api/sessions", token,
		sessionPayload(lead.ID, env.trainer.ID, startsAt, 60))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var session models.Session
	decodeBody(t, resp, &session)

	resp = env.request(t, http.MethodPost, "/api/sessions/"+itoa(session.ID)+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/sessions", token,
		sessionPayload(lead.ID, env.trainer.ID, startsAt, 60))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCreateSessionDurationOutOfRange(t *testing.T) {
	env := setupEnv(t)
	token := env.trainerToken(t)
	lead := env.createLead(t, "Maria Souza", "+5511912345678")

	resp := env.request(t, http.MethodPost, "/api/sessions", token,
		sessionPayload(lead.ID, env.trainer.ID, time.Now().Add(24*time.Hour), 5))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRescheduleSession(t *testing.T) {
	env := setupEnv(t)
	token := env.trainerToken(t)
	lead := env.createLead(t, "Maria Souza", "+5511912345678")
	startsAt := time.Now().Add(48 * time.Hour).Truncate(time.Minute)

	session, err := env.store.CreateSession(&models.Session{
		LeadID:    lead.ID,
		TrainerID: env.trainer.ID,
		StartsAt:  startsAt,
		Duration:  60,
	})
	require.NoError(t, err)
	stamp := time.Now()
	session.ReminderSentAt = &stamp
	require.NoError(t, env.store.UpdateSession(session))

	newStart := startsAt.Add(24 * time.Hour)
	resp := env.request(t, http.MethodPatch, "/api/sessions/"+itoa(session.ID), token, fiber.Map{
		"starts_at": newStart.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Session
	decodeBody(t, resp, &updated)
	assert.True(t, updated.StartsAt.Equal(newStart))
	assert.Nil(t, updated.ReminderSentAt, "reschedule should re-arm the reminder")
}

func TestRejectedRescheduleLeavesSessionUntouched(t *testing.T) {
	env := setupEnv(t)
	token := env.trainerToken(t)
	lead := env.createLead(t, "Maria Souza", "+5511912345678")
	other := env.createLead(t, "Carlos Lima", "+5511988887777")
	startsAt := time.Now().Add(48 * time.Hour).Truncate(time.Minute)

	_, err := env.store.CreateSession(&models.Session{
		LeadID:    lead.ID,
		TrainerID: env.trainer.ID,
		StartsAt:  startsAt,
		Duration:  60,
	})
	require.NoError(t, err)

	laterStart := startsAt.Add(2 * time.Hour)
	session, err := env.store.CreateSession(&models.Session{
		LeadID:    other.ID,
		TrainerID: env.trainer.ID,
		StartsAt:  laterStart,
		Duration:  60,
	})
	require.NoError(t, err)
	stamp := time.Now()
	session.ReminderSentAt = &stamp
	require.NoError(t, env.store.UpdateSession(session))

	// Moving into the first session's slot conflicts.
	resp := env.request(t, http.MethodPatch, "/api/sessions/"+itoa(session.ID), token, fiber.Map{
		"starts_at": startsAt.Add(30 * time.Minute).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	stored, err := env.store.GetSession(session.ID)
	require.NoError(t, err)
	assert.True(t, stored.StartsAt.Equal(laterStart), "rejected reschedule must not move the session")
	assert.NotNil(t, stored.ReminderSentAt, "rejected reschedule must not re-arm the reminder")
}

func TestCompleteSession(t *testing.T) {
	env := setupEnv(t)
	token := env.trainerToken(t)
	lead := env.createLead(t, "Maria Souza", "+5511912345678")

	session, err := env.store.CreateSession(&models.Session{
		LeadID:    lead.ID,
		TrainerID: env.trainer.ID,
		StartsAt:  time.Now().Add(-time.Hour),
		Duration:  60,
	})
	require.NoError(t, err)

	resp := env.request(t, http.MethodPost, "/api/sessions/"+itoa(session.ID)+"/complete", token, fiber.Map{
		"notes": "Great progress on squats",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var completed models.Session
	decodeBody(t, resp, &completed)
	assert.Equal(t, models.SessionStatusCompleted, completed.Status)
	assert.Equal(t, "Great progress on squats", completed.Notes)

	// Completed sessions cannot be edited or completed again.
	resp = env.request(t, http.MethodPost, "/api/sessions/"+itoa(session.ID)+"/complete", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.request(t, http.MethodPatch, "/api/sessions/"+itoa(session.ID), token, fiber.Map{
		"notes": "too late",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCompleteSessionNoShow(t *testing.T) {
	env := setupEnv(t)
	token := env.trainerToken(t)
	lead := env.createLead(t, "Maria Souza", "+5511912345678")

	session, err := env.store.CreateSession(&models.Session{
		LeadID:    lead.ID,
		TrainerID: env.trainer.ID,
		StartsAt:  time.Now().Add(-time.Hour),
		Duration:  60,
	})
	require.NoError(t, err)

	resp := env.request(t, http.MethodPost, "/api/sessions/"+itoa(session.ID)+"/complete", token, fiber.Map{
		"no_show": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var done models.Session
	decodeBody(t, resp, &done)
	assert.Equal(t, models.SessionStatusNoShow, done.Status)
}

func TestListSessionsFilters(t *testing.T) {
	env := setupEnv(t)
	token := env.trainerToken(t)
	lead := env.createLead(t, "Maria Souza", "+5511912345678")

	base := time.Now().Add(24 * time.Hour).Truncate(time.Minute)
	for i := 0; i < 3; i++ {
		_, err := env.store.CreateSession(&models.Session{
			LeadID:    lead.ID,
			TrainerID: env.trainer.ID,
			StartsAt:  base.Add(time.Duration(i) * 24 * time.Hour),
			Duration:  60,
		})
		require.NoError(t, err)
	}

	resp := env.request(t, http.MethodGet,
		"/api/sessions?from="+base.Add(12*time.Hour).UTC().Format(time.RFC3339), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Sessions []*models.Session `json:"sessions"`
		Count    int               `json:"count"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, 2, body.Count)

	resp = env.request(t, http.MethodGet, "/api/sessions?status=nonsense", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteSessionRequiresAdmin(t *testing.T) {
	env := setupEnv(t)
	lead := env.createLead(t, "Maria Souza", "+5511912345678")

	session, err := env.store.CreateSession(&models.Session{
		LeadID:    lead.ID,
		TrainerID: env.trainer.ID,
		StartsAt:  time.Now().Add(24 * time.Hour),
		Duration:  60,
	})
	require.NoError(t, err)

	resp := env.request(t, http.MethodDelete, "/api/sessions/"+itoa(session.ID), env.trainerToken(t), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.request(t, http.MethodDelete, "/api/sessions/"+itoa(session.ID), env.adminToken(t), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
