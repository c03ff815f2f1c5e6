package models

import (
	"time"

	"gorm.io/gorm"
)

// Task status constants
const (
	TaskStatusOpen       = "open"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// Task priorities
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// Task is a unit of work assigned between staff members, optionally tied to a lead.
type Task struct {
	gorm.Model
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	AssignedByID uint       `json:"assigned_by_id" gorm:"index"`
	AssignedToID uint       `json:"assigned_to_id" gorm:"index"`
	LeadID       uint       `json:"lead_id" gorm:"index"` // 0 when not lead-related
	DueDate      *time.Time `json:"due_date"`
	Priority     string     `json:"priority" gorm:"default:'medium'"`
	Status       string     `json:"status" gorm:"default:'open';index"`
	CompletedAt  *time.Time `json:"completed_at"`
}

// BeforeCreate defaults status and priority.
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.Status == "" {
		t.Status = TaskStatusOpen
	}
	if t.Priority == "" {
		t.Priority = TaskPriorityMedium
	}
	return nil
}

// IsOverdue reports whether the task is past due and still open.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.Status != TaskStatusDone && t.DueDate.Before(now)
}

// ValidTaskStatus reports whether s is a known task status.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// TaskComment is a threaded note on a task.
type TaskComment struct {
	gorm.Model
	TaskID   uint   `json:"task_id" gorm:"index;not null"`
	AuthorID uint   `json:"author_id" gorm:"index"`
	Body     string `json:"body"`
}

// TaskCreate is the payload for creating a task.
type TaskCreate struct {
	Title        string     `json:"title" validate:"required"`
	Description  string     `json:"description"`
	AssignedToID uint       `json:"assigned_to_id" validate:"required"`
	LeadID       uint       `json:"lead_id"`
	DueDate      *time.Time `json:"due_date"`
	Priority     string     `json:"priority" validate:"omitempty,oneof=low medium high"`
}

// TaskUpdate is the payload for patching a task.
type TaskUpdate struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	AssignedToID *uint      `json:"assigned_to_id"`
	DueDate      *time.Time `json:"due_date"`
	Priority     *string    `json:"priority"`
	Status       *string    `json:"status"`
}

// TaskFilter narrows task list queries.
type TaskFilter struct {
	AssignedToID uint
	Status       string
	Overdue      bool
}
