package models

import (
	"time"

	"gorm.io/gorm"
)

// Session status constants
const (
	SessionStatusScheduled = "scheduled"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
	SessionStatusNoShow    = "no_show"
)

// Session types
const (
	SessionTypePersonal   = "personal"
	SessionTypeGroup      = "group"
	SessionTypeAssessment = "assessment"
)

// Session is a scheduled training appointment between a trainer and a client.
type Session struct {
	gorm.Model
	LeadID         uint       `json:"lead_id" gorm:"index;not null"`
	TrainerID      uint       `json:"trainer_id" gorm:"index;not null"`
	StartsAt       time.Time  `json:"starts_at" gorm:"index;not null"`
	Duration       int        `json:"duration" gorm:"default:60"` // minutes
	Location       string     `json:"location"`
	Type           string     `json:"type" gorm:"default:'personal'"`
	Status         string     `json:"status" gorm:"default:'scheduled';index"`
	Notes          string     `json:"notes"`
	Price          float64    `json:"price"`
	ReminderSentAt *time.Time `json:"reminder_sent_at"`
}

// EndsAt returns the end of the session slot.
func (s *Session) EndsAt() time.Time {
	return s.StartsAt.Add(time.Duration(s.Duration) * time.Minute)
}

// Overlaps reports whether two sessions occupy overlapping time slots.
// Cancelled sessions never count as occupying a slot.
func (s *Session) Overlaps(other *Session) bool {
	if s.Status == SessionStatusCancelled || other.Status == SessionStatusCancelled {
		return false
	}
	return s.StartsAt.Before(other.EndsAt()) && other.StartsAt.Before(s.EndsAt())
}

// ValidSessionStatus reports whether s is a known session status.
func ValidSessionStatus(s string) bool {
	switch s {
	case SessionStatusScheduled, SessionStatusCompleted, SessionStatusCancelled, SessionStatusNoShow:
		return true
	}
	return false
}

// SessionCreate is the payload for scheduling a session.
type SessionCreate struct {
	LeadID    uint      `json:"lead_id" validate:"required"`
	TrainerID uint      `json:"trainer_id" validate:"required"`
	StartsAt  time.Time `json:"starts_at" validate:"required"`
	Duration  int       `json:"duration" validate:"omitempty,min=15,max=240"`
	Location  string    `json:"location"`
	Type      string    `json:"type" validate:"omitempty,oneof=personal group assessment"`
	Notes     string    `json:"notes"`
	Price     float64   `json:"price" validate:"omitempty,min=0"`
}

// SessionUpdate is the payload for rescheduling or editing a session.
type SessionUpdate struct {
	StartsAt *time.Time `json:"starts_at"`
	Duration *int       `json:"duration"`
	Location *string    `json:"location"`
	Notes    *string    `json:"notes"`
	Price    *float64   `json:"price"`
}

// SessionFilter narrows session list queries.
type SessionFilter struct {
	TrainerID uint
	LeadID    uint
	Status    string
	From      time.Time
	To        time.Time
}
