package storage

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pulsefit/fitcrm-backend/internal/models"
)

// MemoryStore holds all data in memory. Used for tests and local smoke runs
// (USE_MEMORY_STORE=true); not for production.
type MemoryStore struct {
	users    map[uint]*models.User
	leads    map[uint]*models.Lead
	sessions map[uint]*models.Session
	tasks    map[uint]*models.Task
	comments map[uint]*models.TaskComment
	messages map[uint]*models.WhatsAppMessage
	audits   []*models.AuditLogEntry
	settings *models.WhatsAppSettings

	userMu    sync.RWMutex
	leadMu    sync.RWMutex
	sessionMu sync.RWMutex
	taskMu    sync.RWMutex
	messageMu sync.RWMutex
	auditMu   sync.RWMutex
	settingMu sync.RWMutex

	userCounter    uint
	leadCounter    uint
	sessionCounter uint
	taskCounter    uint
	commentCounter uint
	messageCounter uint
}

// NewMemoryStore creates a new in-memory storage.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uint]*models.User),
		leads:    make(map[uint]*models.Lead),
		sessions: make(map[uint]*models.Session),
		tasks:    make(map[uint]*models.Task),
		comments: make(map[uint]*models.TaskComment),
		messages: make(map[uint]*models.WhatsAppMessage),
	}
}

// User operations

func (m *MemoryStore) CreateUser(user *models.User) (*models.User, error) {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return nil, ErrDuplicate
		}
	}
	if user.Role == "" {
		user.Role = models.RoleTrainer
	}
	user.Phone = models.NormalizePhone(user.Phone)
	user.IsActive = true

	m.userCounter++
	user.ID = m.userCounter
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	m.users[user.ID] = user
	return user, nil
}

func (m *MemoryStore) GetUser(id uint) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, ErrNotFound
	}
	out := *user
	return &out, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range m.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetAllUsers() ([]*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	users := make([]*models.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *MemoryStore) UpdateUser(user *models.User) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	if _, exists := m.users[user.ID]; !exists {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

func (m *MemoryStore) DeleteUser(id uint) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	if _, exists := m.users[id]; !exists {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// Lead operations

func (m *MemoryStore) CreateLead(lead *models.Lead) (*models.Lead, error) {
	m.leadMu.Lock()
	defer m.leadMu.Unlock()

	lead.Phone = models.NormalizePhone(lead.Phone)
	for _, existing := range m.leads {
		if existing.Phone == lead.Phone {
			return nil, ErrDuplicate
		}
	}
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	if lead.Source == "" {
		lead.Source = models.LeadSourceWebsite
	}

	m.leadCounter++
	lead.ID = m.leadCounter
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = time.Now()
	m.leads[lead.ID] = lead
	return lead, nil
}

func (m *MemoryStore) GetLead(id uint) (*models.Lead, error) {
	m.leadMu.RLock()
	defer m.leadMu.RUnlock()

	lead, exists := m.leads[id]
	if !exists {
		return nil, ErrNotFound
	}
	out := *lead
	return &out, nil
}

func (m *MemoryStore) GetLeadByPhone(phone string) (*models.Lead, error) {
	m.leadMu.RLock()
	defer m.leadMu.RUnlock()

	phone = models.NormalizePhone(phone)
	for _, lead := range m.leads {
		if lead.Phone == phone {
			out := *lead
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListLeads(filter *models.LeadFilter) ([]*models.Lead, error) {
	m.leadMu.RLock()
	defer m.leadMu.RUnlock()

	var results []*models.Lead
	for _, lead := range m.leads {
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		if filter.Source != "" && lead.Source != filter.Source {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(lead.Name), needle) &&
				!strings.Contains(lead.Phone, filter.Search) {
				continue
			}
		}
		results = append(results, lead)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID > results[j].ID })

	if filter.Offset > 0 {
		if filter.Offset >= len(results) {
			return nil, nil
		}
		results = results[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(results) {
		results = results[:filter.Limit]
	}
	return results, nil
}

func (m *MemoryStore) UpdateLead(lead *models.Lead) error {
	m.leadMu.Lock()
	defer m.leadMu.Unlock()

	if _, exists := m.leads[lead.ID]; !exists {
		return ErrNotFound
	}
	lead.UpdatedAt = time.Now()
	m.leads[lead.ID] = lead
	return nil
}

func (m *MemoryStore) DeleteLead(id uint) error {
	m.leadMu.Lock()
	defer m.leadMu.Unlock()

	if _, exists := m.leads[id]; !exists {
		return ErrNotFound
	}
	delete(m.leads, id)
	return nil
}

func (m *MemoryStore) CountLeadsByStatus() (map[string]int64, error) {
	m.leadMu.RLock()
	defer m.leadMu.RUnlock()

	counts := make(map[string]int64)
	for _, lead := range m.leads {
		counts[lead.Status]++
	}
	return counts, nil
}

func (m *MemoryStore) GetStaleLeads(cutoff time.Time) ([]*models.Lead, error) {
	m.leadMu.RLock()
	defer m.leadMu.RUnlock()

	var results []*models.Lead
	for _, lead := range m.leads {
		if lead.Status != models.LeadStatusNew && lead.Status != models.LeadStatusContacted {
			continue
		}
		lastTouch := lead.CreatedAt
		if lead.LastContactAt != nil && lead.LastContactAt.After(lastTouch) {
			lastTouch = *lead.LastContactAt
		}
		if lastTouch.Before(cutoff) {
			out := *lead
			results = append(results, &out)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

// Session operations

func (m *MemoryStore) CreateSession(session *models.Session) (*models.Session, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	if session.Status == "" {
		session.Status = models.SessionStatusScheduled
	}
	if session.Duration == 0 {
		session.Duration = 60
	}
	if session.Type == "" {
		session.Type = models.SessionTypePersonal
	}

	m.sessionCounter++
	session.ID = m.sessionCounter
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()
	m.sessions[session.ID] = session
	return session, nil
}

func (m *MemoryStore) GetSession(id uint) (*models.Session, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, ErrNotFound
	}
	out := *session
	return &out, nil
}

func (m *MemoryStore) ListSessions(filter *models.SessionFilter) ([]*models.Session, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	var results []*models.Session
	for _, session := range m.sessions {
		if filter.TrainerID != 0 && session.TrainerID != filter.TrainerID {
			continue
		}
		if filter.LeadID != 0 && session.LeadID != filter.LeadID {
			continue
		}
		if filter.Status != "" && session.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && session.StartsAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && session.StartsAt.After(filter.To) {
			continue
		}
		results = append(results, session)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].StartsAt.Before(results[j].StartsAt) })
	return results, nil
}

func (m *MemoryStore) GetTrainerSessionsInRange(trainerID uint, from, to time.Time) ([]*models.Session, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	var results []*models.Session
	for _, session := range m.sessions {
		if session.TrainerID != trainerID {
			continue
		}
		if session.Status == models.SessionStatusCancelled {
			continue
		}
		if session.StartsAt.Before(to) && from.Before(session.EndsAt()) {
			results = append(results, session)
		}
	}
	return results, nil
}

func (m *MemoryStore) GetSessionsNeedingReminder(from, to time.Time) ([]*models.Session, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	var results []*models.Session
	for _, session := range m.sessions {
		if session.Status != models.SessionStatusScheduled || session.ReminderSentAt != nil {
			continue
		}
		if !session.StartsAt.Before(from) && session.StartsAt.Before(to) {
			out := *session
			results = append(results, &out)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].StartsAt.Before(results[j].StartsAt) })
	return results, nil
}

func (m *MemoryStore) UpdateSession(session *models.Session) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	if _, exists := m.sessions[session.ID]; !exists {
		return ErrNotFound
	}
	session.UpdatedAt = time.Now()
	m.sessions[session.ID] = session
	return nil
}

func (m *MemoryStore) DeleteSession(id uint) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) CountSessionsByStatus() (map[string]int64, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	counts := make(map[string]int64)
	for _, session := range m.sessions {
		counts[session.Status]++
	}
	return counts, nil
}

func (m *MemoryStore) CountUpcomingSessions(from, to time.Time) (int64, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	var count int64
	for _, session := range m.sessions {
		if session.Status != models.SessionStatusScheduled {
			continue
		}
		if !session.StartsAt.Before(from) && session.StartsAt.Before(to) {
			count++
		}
	}
	return count, nil
}

// Task operations

func (m *MemoryStore) CreateTask(task *models.Task) (*models.Task, error) {
	m.taskMu.Lock()
	defer m.taskMu.Unlock()

	if task.Status == "" {
		task.Status = models.TaskStatusOpen
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}

	m.taskCounter++
	task.ID = m.taskCounter
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()
	m.tasks[task.ID] = task
	return task, nil
}

func (m *MemoryStore) GetTask(id uint) (*models.Task, error) {
	m.taskMu.RLock()
	defer m.taskMu.RUnlock()

	task, exists := m.tasks[id]
	if !exists {
		return nil, ErrNotFound
	}
	out := *task
	return &out, nil
}

func (m *MemoryStore) ListTasks(filter *models.TaskFilter) ([]*models.Task, error) {
	m.taskMu.RLock()
	defer m.taskMu.RUnlock()

	now := time.Now()
	var results []*models.Task
	for _, task := range m.tasks {
		if filter.AssignedToID != 0 && task.AssignedToID != filter.AssignedToID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Overdue && !task.IsOverdue(now) {
			continue
		}
		results = append(results, task)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID > results[j].ID })
	return results, nil
}

func (m *MemoryStore) UpdateTask(task *models.Task) error {
	m.taskMu.Lock()
	defer m.taskMu.Unlock()

	if _, exists := m.tasks[task.ID]; !exists {
		return ErrNotFound
	}
	task.UpdatedAt = time.Now()
	m.tasks[task.ID] = task
	return nil
}

func (m *MemoryStore) DeleteTask(id uint) error {
	m.taskMu.Lock()
	defer m.taskMu.Unlock()

	if _, exists := m.tasks[id]; !exists {
		return ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *MemoryStore) CountOpenTasks() (int64, int64, error) {
	m.taskMu.RLock()
	defer m.taskMu.RUnlock()

	now := time.Now()
	var open, overdue int64
	for _, task := range m.tasks {
		if task.Status == models.TaskStatusDone {
			continue
		}
		open++
		if task.IsOverdue(now) {
			overdue++
		}
	}
	return open, overdue, nil
}

func (m *MemoryStore) HasOpenFollowUpTask(leadID uint) (bool, error) {
	m.taskMu.RLock()
	defer m.taskMu.RUnlock()

	for _, task := range m.tasks {
		if task.LeadID == leadID && task.Status != models.TaskStatusDone {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) CreateTaskComment(comment *models.TaskComment) (*models.TaskComment, error) {
	m.taskMu.Lock()
	defer m.taskMu.Unlock()

	if _, exists := m.tasks[comment.TaskID]; !exists {
		return nil, ErrNotFound
	}

	m.commentCounter++
	comment.ID = m.commentCounter
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = time.Now()
	m.comments[comment.ID] = comment
	return comment, nil
}

func (m *MemoryStore) GetTaskComments(taskID uint) ([]*models.TaskComment, error) {
	m.taskMu.RLock()
	defer m.taskMu.RUnlock()

	var results []*models.TaskComment
	for _, comment := range m.comments {
		if comment.TaskID == taskID {
			results = append(results, comment)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

// Message operations

func (m *MemoryStore) CreateMessage(msg *models.WhatsAppMessage) (*models.WhatsAppMessage, error) {
	m.messageMu.Lock()
	defer m.messageMu.Unlock()

	if msg.ProviderMessageID != "" {
		for _, existing := range m.messages {
			if existing.ProviderMessageID == msg.ProviderMessageID {
				return nil, ErrDuplicate
			}
		}
	}
	if msg.Status == "" {
		msg.Status = models.MessageStatusPending
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	m.messageCounter++
	msg.ID = m.messageCounter
	msg.CreatedAt = time.Now()
	msg.UpdatedAt = time.Now()
	m.messages[msg.ID] = msg
	return msg, nil
}

func (m *MemoryStore) GetMessageByProviderID(providerID string) (*models.WhatsAppMessage, error) {
	m.messageMu.RLock()
	defer m.messageMu.RUnlock()

	for _, msg := range m.messages {
		if msg.ProviderMessageID == providerID {
			out := *msg
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListMessages(filter *models.MessageFilter) ([]*models.WhatsAppMessage, error) {
	m.messageMu.RLock()
	defer m.messageMu.RUnlock()

	var results []*models.WhatsAppMessage
	for _, msg := range m.messages {
		if filter.LeadID != 0 && msg.LeadID != filter.LeadID {
			continue
		}
		if filter.Direction != "" && msg.Direction != filter.Direction {
			continue
		}
		results = append(results, msg)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Timestamp.Before(results[j].Timestamp) })
	if filter.Limit > 0 && filter.Limit < len(results) {
		results = results[len(results)-filter.Limit:]
	}
	return results, nil
}

func (m *MemoryStore) UpdateMessage(msg *models.WhatsAppMessage) error {
	m.messageMu.Lock()
	defer m.messageMu.Unlock()

	if _, exists := m.messages[msg.ID]; !exists {
		return ErrNotFound
	}
	msg.UpdatedAt = time.Now()
	m.messages[msg.ID] = msg
	return nil
}

func (m *MemoryStore) CountMessagesByDirection() (map[string]int64, error) {
	m.messageMu.RLock()
	defer m.messageMu.RUnlock()

	counts := make(map[string]int64)
	for _, msg := range m.messages {
		counts[msg.Direction]++
	}
	return counts, nil
}

// WhatsApp settings

func (m *MemoryStore) GetWhatsAppSettings() (*models.WhatsAppSettings, error) {
	m.settingMu.RLock()
	defer m.settingMu.RUnlock()

	if m.settings == nil {
		return nil, ErrNotFound
	}
	out := *m.settings
	return &out, nil
}

func (m *MemoryStore) SaveWhatsAppSettings(settings *models.WhatsAppSettings) error {
	m.settingMu.Lock()
	defer m.settingMu.Unlock()

	if settings.ID == 0 {
		settings.ID = 1
		settings.CreatedAt = time.Now()
	}
	settings.UpdatedAt = time.Now()
	m.settings = settings
	return nil
}

// Audit log

func (m *MemoryStore) CreateAuditLog(entry *models.AuditLogEntry) error {
	m.auditMu.Lock()
	defer m.auditMu.Unlock()

	entry.ID = uint(len(m.audits) + 1)
	entry.CreatedAt = time.Now()
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = entry.CreatedAt
	}
	m.audits = append(m.audits, entry)
	return nil
}

func (m *MemoryStore) ListAuditLogs(limit int) ([]*models.AuditLogEntry, error) {
	m.auditMu.RLock()
	defer m.auditMu.RUnlock()

	results := make([]*models.AuditLogEntry, len(m.audits))
	copy(results, m.audits)
	// Newest first
	sort.Slice(results, func(i, j int) bool { return results[i].ID > results[j].ID })
	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}
