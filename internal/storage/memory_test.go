package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsefit/fitcrm-backend/internal/models"
)

func TestMemoryStoreLeadDuplicatePhone(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.CreateLead(&models.Lead{Name: "Maria", Phone: "+5511912345678"})
	require.NoError(t, err)

	// Same number with different formatting is still a duplicate.
	_, err = store.CreateLead(&models.Lead{Name: "Maria S.", Phone: "55 11 91234-5678"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryStoreLeadLookupByPhoneNormalizes(t *testing.T) {
	store := NewMemoryStore()

	created, err := store.CreateLead(&models.Lead{Name: "Maria", Phone: "55 11 91234-5678"})
	require.NoError(t, err)
	assert.Equal(t, "+5511912345678", created.Phone)

	found, err := store.GetLeadByPhone("5511912345678")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestMemoryStoreGettersReturnCopies(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)

	lead, err := store.CreateLead(&models.Lead{Name: "Maria", Phone: "+5511912345678"})
	require.NoError(t, err)
	session, err := store.CreateSession(&models.Session{
		LeadID: lead.ID, TrainerID: 1, StartsAt: base, Duration: 60,
	})
	require.NoError(t, err)

	// Mutating a fetched record without calling Update must not change
	// stored state.
	fetched, err := store.GetSession(session.ID)
	require.NoError(t, err)
	fetched.StartsAt = base.Add(30 * time.Minute)
	fetched.ReminderSentAt = nil

	stored, err := store.GetSession(session.ID)
	require.NoError(t, err)
	assert.True(t, stored.StartsAt.Equal(base))

	fetchedLead, err := store.GetLead(lead.ID)
	require.NoError(t, err)
	fetchedLead.Status = models.LeadStatusConverted

	storedLead, err := store.GetLead(lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusNew, storedLead.Status)
}

func TestMemoryStoreListLeadsPagination(t *testing.T) {
	store := NewMemoryStore()

	phones := []string{"+551191111111", "+551192222222", "+551193333333"}
	for i, phone := range phones {
		_, err := store.CreateLead(&models.Lead{Name: "Lead", Phone: phone})
		require.NoError(t, err, "lead %d", i)
	}

	// Newest first.
	leads, err := store.ListLeads(&models.LeadFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, uint(3), leads[0].ID)
	assert.Equal(t, uint(2), leads[1].ID)

	leads, err = store.ListLeads(&models.LeadFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, uint(1), leads[0].ID)

	leads, err = store.ListLeads(&models.LeadFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestMemoryStoreStaleLeads(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	stale, err := store.CreateLead(&models.Lead{Name: "Stale", Phone: "+551191111111"})
	require.NoError(t, err)
	stale.CreatedAt = now.Add(-96 * time.Hour)
	require.NoError(t, store.UpdateLead(stale))

	fresh, err := store.CreateLead(&models.Lead{Name: "Fresh", Phone: "+551192222222"})
	require.NoError(t, err)
	fresh.CreatedAt = now.Add(-96 * time.Hour)
	touch := now.Add(-time.Hour)
	fresh.LastContactAt = &touch
	require.NoError(t, store.UpdateLead(fresh))

	converted, err := store.CreateLead(&models.Lead{Name: "Converted", Phone: "+551193333333"})
	require.NoError(t, err)
	converted.CreatedAt = now.Add(-96 * time.Hour)
	converted.Status = models.LeadStatusConverted
	require.NoError(t, store.UpdateLead(converted))

	leads, err := store.GetStaleLeads(now.Add(-72 * time.Hour))
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Stale", leads[0].Name)
}

func TestMemoryStoreTrainerSessionsInRange(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)

	inRange, err := store.CreateSession(&models.Session{
		LeadID: 1, TrainerID: 7, StartsAt: base, Duration: 60,
	})
	require.NoError(t, err)

	cancelled, err := store.CreateSession(&models.Session{
		LeadID: 1, TrainerID: 7, StartsAt: base.Add(30 * time.Minute), Duration: 60,
	})
	require.NoError(t, err)
	cancelled.Status = models.SessionStatusCancelled
	require.NoError(t, store.UpdateSession(cancelled))

	_, err = store.CreateSession(&models.Session{
		LeadID: 1, TrainerID: 8, StartsAt: base, Duration: 60,
	})
	require.NoError(t, err)

	// Window touching only the tail of the session still matches.
	sessions, err := store.GetTrainerSessionsInRange(7, base.Add(45*time.Minute), base.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, inRange.ID, sessions[0].ID)

	// Adjacent window does not match.
	sessions, err = store.GetTrainerSessionsInRange(7, base.Add(60*time.Minute), base.Add(120*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestMemoryStoreSessionsNeedingReminder(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	due, err := store.CreateSession(&models.Session{
		LeadID: 1, TrainerID: 1, StartsAt: now.Add(2 * time.Hour), Duration: 60,
	})
	require.NoError(t, err)

	reminded, err := store.CreateSession(&models.Session{
		LeadID: 1, TrainerID: 1, StartsAt: now.Add(3 * time.Hour), Duration: 60,
	})
	require.NoError(t, err)
	stamp := now.Add(-time.Hour)
	reminded.ReminderSentAt = &stamp
	require.NoError(t, store.UpdateSession(reminded))

	_, err = store.CreateSession(&models.Session{
		LeadID: 1, TrainerID: 1, StartsAt: now.Add(48 * time.Hour), Duration: 60,
	})
	require.NoError(t, err)

	sessions, err := store.GetSessionsNeedingReminder(now, now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, due.ID, sessions[0].ID)
}

func TestMemoryStoreMessageProviderIDUnique(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.CreateMessage(&models.WhatsAppMessage{
		LeadID: 1, Direction: models.MessageDirectionInbound, Body: "hi", ProviderMessageID: "WAMID-1",
	})
	require.NoError(t, err)

	_, err = store.CreateMessage(&models.WhatsAppMessage{
		LeadID: 1, Direction: models.MessageDirectionInbound, Body: "hi again", ProviderMessageID: "WAMID-1",
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	// Messages without a provider id never collide.
	for i := 0; i < 2; i++ {
		_, err = store.CreateMessage(&models.WhatsAppMessage{
			LeadID: 1, Direction: models.MessageDirectionOutbound, Body: "draft",
		})
		require.NoError(t, err)
	}
}

func TestMemoryStoreListMessagesLimitKeepsNewest(t *testing.T) {
	store := NewMemoryStore()
	base := time.Now()

	for i := 0; i < 5; i++ {
		_, err := store.CreateMessage(&models.WhatsAppMessage{
			LeadID:    1,
			Direction: models.MessageDirectionInbound,
			Body:      "msg",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	msgs, err := store.ListMessages(&models.MessageFilter{LeadID: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].Timestamp.Before(msgs[1].Timestamp), "chronological order")
	assert.True(t, msgs[1].Timestamp.Equal(base.Add(4*time.Minute)), "limit keeps the newest messages")
}

func TestMemoryStoreCountOpenTasks(t *testing.T) {
	store := NewMemoryStore()
	past := time.Now().Add(-time.Hour)

	_, err := store.CreateTask(&models.Task{Title: "Open", AssignedToID: 1})
	require.NoError(t, err)
	_, err = store.CreateTask(&models.Task{Title: "Overdue", AssignedToID: 1, DueDate: &past})
	require.NoError(t, err)

	done, err := store.CreateTask(&models.Task{Title: "Done", AssignedToID: 1, DueDate: &past})
	require.NoError(t, err)
	done.Status = models.TaskStatusDone
	require.NoError(t, store.UpdateTask(done))

	open, overdue, err := store.CountOpenTasks()
	require.NoError(t, err)
	assert.Equal(t, int64(2), open)
	assert.Equal(t, int64(1), overdue)
}

func TestMemoryStoreTaskCommentsRequireTask(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.CreateTaskComment(&models.TaskComment{TaskID: 42, Body: "orphan"})
	assert.ErrorIs(t, err, ErrNotFound)

	task, err := store.CreateTask(&models.Task{Title: "With thread", AssignedToID: 1})
	require.NoError(t, err)

	for _, body := range []string{"first", "second"} {
		_, err = store.CreateTaskComment(&models.TaskComment{TaskID: task.ID, Body: body})
		require.NoError(t, err)
	}

	comments, err := store.GetTaskComments(task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Body)
}

func TestMemoryStoreUserDuplicateEmail(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.CreateUser(&models.User{Name: "Ana", Email: "Ana@Studio.Test"})
	require.NoError(t, err)

	_, err = store.CreateUser(&models.User{Name: "Ana 2", Email: "ana@studio.test"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryStoreAuditLogNewestFirst(t *testing.T) {
	store := NewMemoryStore()

	for _, action := range []string{"create", "update", "delete"} {
		require.NoError(t, store.CreateAuditLog(&models.AuditLogEntry{
			Action: action, Entity: "leads", Method: "POST",
		}))
	}

	entries, err := store.ListAuditLogs(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "delete", entries[0].Action)
	assert.Equal(t, "update", entries[1].Action)
}

func TestGlobalStoreAccessor(t *testing.T) {
	store := NewMemoryStore()
	SetStore(store)
	assert.Equal(t, Store(store), GetStore())
}
