package storage

import (
	"errors"
	"sync"
	"time"

	"github.com/pulsefit/fitcrm-backend/internal/models"
)

// ErrNotFound is returned when a record does not exist, regardless of backend.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a uniqueness constraint would be violated
// (lead phone, user email, provider message id).
var ErrDuplicate = errors.New("record already exists")

var (
	storeInstance Store
	storeMu       sync.RWMutex
)

// SetStore sets the global store instance (call from main.go).
func SetStore(s Store) {
	storeMu.Lock()
	defer storeMu.Unlock()
	storeInstance = s
}

// GetStore returns the global store instance.
func GetStore() Store {
	storeMu.RLock()
	defer storeMu.RUnlock()
	return storeInstance
}

// Store defines the interface for storage operations.
type Store interface {
	// User operations
	CreateUser(user *models.User) (*models.User, error)
	GetUser(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetAllUsers() ([]*models.User, error)
	UpdateUser(user *models.User) error
	DeleteUser(id uint) error

	// Lead operations
	CreateLead(lead *models.Lead) (*models.Lead, error)
	GetLead(id uint) (*models.Lead, error)
	GetLeadByPhone(phone string) (*models.Lead, error)
	ListLeads(filter *models.LeadFilter) ([]*models.Lead, error)
	UpdateLead(lead *models.Lead) error
	DeleteLead(id uint) error
	CountLeadsByStatus() (map[string]int64, error)
	GetStaleLeads(cutoff time.Time) ([]*models.Lead, error)

	// Session operations
	CreateSession(session *models.Session) (*models.Session, error)
	GetSession(id uint) (*models.Session, error)
	ListSessions(filter *models.SessionFilter) ([]*models.Session, error)
	GetTrainerSessionsInRange(trainerID uint, from, to time.Time) ([]*models.Session, error)
	GetSessionsNeedingReminder(from, to time.Time) ([]*models.Session, error)
	UpdateSession(session *models.Session) error
	DeleteSession(id uint) error
	CountSessionsByStatus() (map[string]int64, error)
	CountUpcomingSessions(from, to time.Time) (int64, error)

	// Task operations
	CreateTask(task *models.Task) (*models.Task, error)
	GetTask(id uint) (*models.Task, error)
	ListTasks(filter *models.TaskFilter) ([]*models.Task, error)
	UpdateTask(task *models.Task) error
	DeleteTask(id uint) error
	CountOpenTasks() (open int64, overdue int64, err error)
	HasOpenFollowUpTask(leadID uint) (bool, error)
	CreateTaskComment(comment *models.TaskComment) (*models.TaskComment, error)
	GetTaskComments(taskID uint) ([]*models.TaskComment, error)

	// Message operations
	CreateMessage(msg *models.WhatsAppMessage) (*models.WhatsAppMessage, error)
	GetMessageByProviderID(providerID string) (*models.WhatsAppMessage, error)
	ListMessages(filter *models.MessageFilter) ([]*models.WhatsAppMessage, error)
	UpdateMessage(msg *models.WhatsAppMessage) error
	CountMessagesByDirection() (map[string]int64, error)

	// WhatsApp settings (single row)
	GetWhatsAppSettings() (*models.WhatsAppSettings, error)
	SaveWhatsAppSettings(settings *models.WhatsAppSettings) error

	// Audit log
	CreateAuditLog(entry *models.AuditLogEntry) error
	ListAuditLogs(limit int) ([]*models.AuditLogEntry, error)
}
