package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/pulsefit/fitcrm-backend/internal/logger"
	"github.com/pulsefit/fitcrm-backend/internal/models"
	"github.com/pulsefit/fitcrm-backend/internal/services"
	"github.com/pulsefit/fitcrm-backend/internal/storage"
)

const (
	reminderWindow    = 24 * time.Hour
	staleLeadAge      = 72 * time.Hour
	followUpTaskDue   = 24 * time.Hour
	followUpTaskTitle = "Follow up with lead"
)

// Scheduler runs the recurring CRM jobs: session reminders over WhatsApp and
// follow-up tasks for leads going cold.
type Scheduler struct {
	cronEngine      *cron.Cron
	store           storage.Store
	whatsappService *services.WhatsAppService
	reminderSpec    string
	followUpSpec    string
}

// NewScheduler creates the job scheduler. whatsappService may be nil when no
// messaging provider is configured; reminders are then skipped.
func NewScheduler(store storage.Store, whatsappService *services.WhatsAppService, reminderSpec, followUpSpec string) *Scheduler {
	return &Scheduler{
		cronEngine:      cron.New(cron.WithLocation(time.Local)),
		store:           store,
		whatsappService: whatsappService,
		reminderSpec:    reminderSpec,
		followUpSpec:    followUpSpec,
	}
}

// Start registers and starts the cron jobs.
func (s *Scheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(s.reminderSpec, func() {
		if n := s.SendSessionReminders(time.Now()); n > 0 {
			logger.Log.WithField("sent", n).Info("Session reminders dispatched")
		}
	}); err != nil {
		return fmt.Errorf("could not schedule session reminders: %w", err)
	}

	if _, err := s.cronEngine.AddFunc(s.followUpSpec, func() {
		if n := s.CreateLeadFollowUps(time.Now()); n > 0 {
			logger.Log.WithField("created", n).Info("Lead follow-up tasks created")
		}
	}); err != nil {
		return fmt.Errorf("could not schedule lead follow-ups: %w", err)
	}

	s.cronEngine.Start()
	logger.Log.Info("Job scheduler started")
	return nil
}

// Stop halts the cron engine and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	logger.Log.Info("Job scheduler stopped")
}

// SendSessionReminders messages every client whose session starts within the
// reminder window and has not been reminded yet. Returns the number sent.
func (s *Scheduler) SendSessionReminders(now time.Time) int {
	if s.whatsappService == nil || s.whatsappService.Messenger() == nil {
		return 0
	}

	sessions, err := s.store.GetSessionsNeedingReminder(now, now.Add(reminderWindow))
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch sessions for reminders")
		return 0
	}

	sent := 0
	for _, session := range sessions {
		lead, err := s.store.GetLead(session.LeadID)
		if err != nil {
			logger.Log.WithError(err).WithField("session_id", session.ID).Warn("Reminder skipped, lead missing")
			continue
		}
		trainerName := "your trainer"
		if trainer, err := s.store.GetUser(session.TrainerID); err == nil {
			trainerName = trainer.Name
		}

		body := fmt.Sprintf("Hi %s! Reminder: your %s session with %s is on %s",
			lead.Name, session.Type, trainerName, session.StartsAt.Format("Mon 02 Jan at 15:04"))
		if session.Location != "" {
			body += " at " + session.Location
		}
		body += ". Reply here if you need to reschedule."

		if _, err := s.whatsappService.Send(lead, body, 0); err != nil {
			logger.Log.WithError(err).WithFields(logrus.Fields{
				"session_id": session.ID,
				"lead_id":    lead.ID,
			}).Error("Failed to send session reminder")
			continue
		}

		stamp := now
		session.ReminderSentAt = &stamp
		if err := s.store.UpdateSession(session); err != nil {
			logger.Log.WithError(err).WithField("session_id", session.ID).Error("Failed to stamp reminder")
			continue
		}
		sent++
	}
	return sent
}

// CreateLeadFollowUps opens a task for each lead that has gone quiet. A lead
// with any open task already attached is skipped. Returns the number created.
func (s *Scheduler) CreateLeadFollowUps(now time.Time) int {
	leads, err := s.store.GetStaleLeads(now.Add(-staleLeadAge))
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch stale leads")
		return 0
	}

	created := 0
	for _, lead := range leads {
		hasTask, err := s.store.HasOpenFollowUpTask(lead.ID)
		if err != nil {
			logger.Log.WithError(err).WithField("lead_id", lead.ID).Error("Failed to check follow-up tasks")
			continue
		}
		if hasTask {
			continue
		}

		due := now.Add(followUpTaskDue)
		task := &models.Task{
			Title:        followUpTaskTitle,
			Description:  fmt.Sprintf("%s (%s) has had no contact since %s.", lead.Name, lead.Phone, lastTouch(lead).Format("2006-01-02")),
			AssignedToID: lead.OwnerID,
			LeadID:       lead.ID,
			DueDate:      &due,
			Priority:     models.TaskPriorityHigh,
		}
		if _, err := s.store.CreateTask(task); err != nil {
			logger.Log.WithError(err).WithField("lead_id", lead.ID).Error("Failed to create follow-up task")
			continue
		}
		created++
	}
	return created
}

func lastTouch(lead *models.Lead) time.Time {
	if lead.LastContactAt != nil && lead.LastContactAt.After(lead.CreatedAt) {
		return *lead.LastContactAt
	}
	return lead.CreatedAt
}
