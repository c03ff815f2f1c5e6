package models

import (
	"time"

	"gorm.io/gorm"
)

// AuditLogEntry records a successful mutating API request.
type AuditLogEntry struct {
	gorm.Model
	UserID     uint      `json:"user_id" gorm:"index"`
	UserEmail  string    `json:"user_email"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Entity     string    `json:"entity" gorm:"index"` // e.g. "leads", "sessions"
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action"` // create, update, delete
	StatusCode int       `json:"status_code"`
	IP         string    `json:"ip"`
	OccurredAt time.Time `json:"occurred_at"`
}
