package storage

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pulsefit/fitcrm-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM/Postgres.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a store backed by the given GORM connection.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

// User operations

func (d *DatabaseStore) CreateUser(user *models.User) (*models.User, error) {
	if err := d.db.Create(user).Error; err != nil {
		return nil, translateErr(err)
	}
	return user, nil
}

func (d *DatabaseStore) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := d.db.First(&user, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (d *DatabaseStore) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := d.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (d *DatabaseStore) GetAllUsers() ([]*models.User, error) {
	var users []*models.User
	if err := d.db.Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (d *DatabaseStore) UpdateUser(user *models.User) error {
	return translateErr(d.db.Save(user).Error)
}

func (d *DatabaseStore) DeleteUser(id uint) error {
	res := d.db.Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Lead operations

func (d *DatabaseStore) CreateLead(lead *models.Lead) (*models.Lead, error) {
	if err := d.db.Create(lead).Error; err != nil {
		return nil, translateErr(err)
	}
	return lead, nil
}

func (d *DatabaseStore) GetLead(id uint) (*models.Lead, error) {
	var lead models.Lead
	if err := d.db.First(&lead, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &lead, nil
}

func (d *DatabaseStore) GetLeadByPhone(phone string) (*models.Lead, error) {
	var lead models.Lead
	phone = models.NormalizePhone(phone)
	if err := d.db.Where("phone = ?", phone).First(&lead).Error; err != nil {
		return nil, translateErr(err)
	}
	return &lead, nil
}

func (d *DatabaseStore) ListLeads(filter *models.LeadFilter) ([]*models.Lead, error) {
	query := d.db.Model(&models.Lead{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR phone LIKE ?", like, like)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var leads []*models.Lead
	if err := query.Order("id DESC").Find(&leads).Error; err != nil {
		return nil, err
	}
	return leads, nil
}

func (d *DatabaseStore) UpdateLead(lead *models.Lead) error {
	return translateErr(d.db.Save(lead).Error)
}

func (d *DatabaseStore) DeleteLead(id uint) error {
	res := d.db.Delete(&models.Lead{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) CountLeadsByStatus() (map[string]int64, error) {
	return d.countByColumn(&models.Lead{}, "status")
}

func (d *DatabaseStore) GetStaleLeads(cutoff time.Time) ([]*models.Lead, error) {
	var leads []*models.Lead
	err := d.db.
		Where("status IN ?", []string{models.LeadStatusNew, models.LeadStatusContacted}).
		Where("COALESCE(last_contact_at, created_at) < ?", cutoff).
		Order("id").
		Find(&leads).Error
	if err != nil {
		return nil, err
	}
	return leads, nil
}

// Session operations

func (d *DatabaseStore) CreateSession(session *models.Session) (*models.Session, error) {
	if err := d.db.Create(session).Error; err != nil {
		return nil, translateErr(err)
	}
	return session, nil
}

func (d *DatabaseStore) GetSession(id uint) (*models.Session, error) {
	var session models.Session
	if err := d.db.First(&session, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &session, nil
}

func (d *DatabaseStore) ListSessions(filter *models.SessionFilter) ([]*models.Session, error) {
	query := d.db.Model(&models.Session{})
	if filter.TrainerID != 0 {
		query = query.Where("trainer_id = ?", filter.TrainerID)
	}
	if filter.LeadID != 0 {
		query = query.Where("lead_id = ?", filter.LeadID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if !filter.From.IsZero() {
		query = query.Where("starts_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("starts_at <= ?", filter.To)
	}

	var sessions []*models.Session
	if err := query.Order("starts_at").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (d *DatabaseStore) GetTrainerSessionsInRange(trainerID uint, from, to time.Time) ([]*models.Session, error) {
	var sessions []*models.Session
	err := d.db.
		Where("trainer_id = ?", trainerID).
		Where("status <> ?", models.SessionStatusCancelled).
		Where("starts_at < ?", to).
		Where("starts_at + (duration * interval '1 minute') > ?", from).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (d *DatabaseStore) GetSessionsNeedingReminder(from, to time.Time) ([]*models.Session, error) {
	var sessions []*models.Session
	err := d.db.
		Where("status = ?", models.SessionStatusScheduled).
		Where("reminder_sent_at IS NULL").
		Where("starts_at >= ? AND starts_at < ?", from, to).
		Order("starts_at").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (d *DatabaseStore) UpdateSession(session *models.Session) error {
	return translateErr(d.db.Save(session).Error)
}

func (d *DatabaseStore) DeleteSession(id uint) error {
	res := d.db.Delete(&models.Session{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) CountSessionsByStatus() (map[string]int64, error) {
	return d.countByColumn(&models.Session{}, "status")
}

func (d *DatabaseStore) CountUpcomingSessions(from, to time.Time) (int64, error) {
	var count int64
	err := d.db.Model(&models.Session{}).
		Where("status = ?", models.SessionStatusScheduled).
		Where("starts_at >= ? AND starts_at < ?", from, to).
		Count(&count).Error
	return count, err
}

// Task operations

func (d *DatabaseStore) CreateTask(task *models.Task) (*models.Task, error) {
	if err := d.db.Create(task).Error; err != nil {
		return nil, translateErr(err)
	}
	return task, nil
}

func (d *DatabaseStore) GetTask(id uint) (*models.Task, error) {
	var task models.Task
	if err := d.db.First(&task, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &task, nil
}

func (d *DatabaseStore) ListTasks(filter *models.TaskFilter) ([]*models.Task, error) {
	query := d.db.Model(&models.Task{})
	if filter.AssignedToID != 0 {
		query = query.Where("assigned_to_id = ?", filter.AssignedToID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Overdue {
		query = query.Where("due_date IS NOT NULL AND due_date < ? AND status <> ?",
			time.Now(), models.TaskStatusDone)
	}

	var tasks []*models.Task
	if err := query.Order("id DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (d *DatabaseStore) UpdateTask(task *models.Task) error {
	return translateErr(d.db.Save(task).Error)
}

func (d *DatabaseStore) DeleteTask(id uint) error {
	res := d.db.Delete(&models.Task{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) CountOpenTasks() (int64, int64, error) {
	var open, overdue int64
	if err := d.db.Model(&models.Task{}).
		Where("status <> ?", models.TaskStatusDone).
		Count(&open).Error; err != nil {
		return 0, 0, err
	}
	if err := d.db.Model(&models.Task{}).
		Where("status <> ?", models.TaskStatusDone).
		Where("due_date IS NOT NULL AND due_date < ?", time.Now()).
		Count(&overdue).Error; err != nil {
		return 0, 0, err
	}
	return open, overdue, nil
}

func (d *DatabaseStore) HasOpenFollowUpTask(leadID uint) (bool, error) {
	var count int64
	err := d.db.Model(&models.Task{}).
		Where("lead_id = ?", leadID).
		Where("status <> ?", models.TaskStatusDone).
		Count(&count).Error
	return count > 0, err
}

func (d *DatabaseStore) CreateTaskComment(comment *models.TaskComment) (*models.TaskComment, error) {
	if _, err := d.GetTask(comment.TaskID); err != nil {
		return nil, err
	}
	if err := d.db.Create(comment).Error; err != nil {
		return nil, translateErr(err)
	}
	return comment, nil
}

func (d *DatabaseStore) GetTaskComments(taskID uint) ([]*models.TaskComment, error) {
	var comments []*models.TaskComment
	if err := d.db.Where("task_id = ?", taskID).Order("id").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Message operations

func (d *DatabaseStore) CreateMessage(msg *models.WhatsAppMessage) (*models.WhatsAppMessage, error) {
	if err := d.db.Create(msg).Error; err != nil {
		return nil, translateErr(err)
	}
	return msg, nil
}

func (d *DatabaseStore) GetMessageByProviderID(providerID string) (*models.WhatsAppMessage, error) {
	var msg models.WhatsAppMessage
	if err := d.db.Where("provider_message_id = ?", providerID).First(&msg).Error; err != nil {
		return nil, translateErr(err)
	}
	return &msg, nil
}

func (d *DatabaseStore) ListMessages(filter *models.MessageFilter) ([]*models.WhatsAppMessage, error) {
	query := d.db.Model(&models.WhatsAppMessage{})
	if filter.LeadID != 0 {
		query = query.Where("lead_id = ?", filter.LeadID)
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var msgs []*models.WhatsAppMessage
	if err := query.Order("timestamp").Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (d *DatabaseStore) UpdateMessage(msg *models.WhatsAppMessage) error {
	return translateErr(d.db.Save(msg).Error)
}

func (d *DatabaseStore) CountMessagesByDirection() (map[string]int64, error) {
	return d.countByColumn(&models.WhatsAppMessage{}, "direction")
}

// WhatsApp settings

func (d *DatabaseStore) GetWhatsAppSettings() (*models.WhatsAppSettings, error) {
	var settings models.WhatsAppSettings
	if err := d.db.First(&settings).Error; err != nil {
		return nil, translateErr(err)
	}
	return &settings, nil
}

func (d *DatabaseStore) SaveWhatsAppSettings(settings *models.WhatsAppSettings) error {
	return translateErr(d.db.Save(settings).Error)
}

// Audit log

func (d *DatabaseStore) CreateAuditLog(entry *models.AuditLogEntry) error {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}
	return d.db.Create(entry).Error
}

func (d *DatabaseStore) ListAuditLogs(limit int) ([]*models.AuditLogEntry, error) {
	query := d.db.Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var entries []*models.AuditLogEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// countByColumn groups rows of model by the given column.
func (d *DatabaseStore) countByColumn(model interface{}, column string) (map[string]int64, error) {
	type row struct {
		Key   string
		Count int64
	}
	var rows []row
	err := d.db.Model(model).
		Select(column + " AS key, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Key] = r.Count
	}
	return counts, nil
}
