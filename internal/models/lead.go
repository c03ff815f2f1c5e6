package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Lead status constants
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusScheduled = "scheduled"
	LeadStatusConverted = "converted"
	LeadStatusLost      = "lost"
)

// Lead sources
const (
	LeadSourceInstagram = "instagram"
	LeadSourceReferral  = "referral"
	LeadSourceWalkIn    = "walk_in"
	LeadSourceWebsite   = "website"
	LeadSourceWhatsApp  = "whatsapp"
)

// Lead is a prospective (or converted) client of the training business.
type Lead struct {
	gorm.Model
	Name          string     `json:"name"`
	Phone         string     `json:"phone" gorm:"uniqueIndex"` // WhatsApp number
	Email         string     `json:"email"`
	Source        string     `json:"source" gorm:"default:'website'"`
	Status        string     `json:"status" gorm:"default:'new';index"`
	Goal          string     `json:"goal"` // e.g. "weight loss", "strength"
	Notes         string     `json:"notes"`
	OwnerID       uint       `json:"owner_id" gorm:"index"` // trainer responsible for follow-up
	LastContactAt *time.Time `json:"last_contact_at"`
}

// BeforeCreate normalizes the phone number and defaults status/source.
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	l.Phone = NormalizePhone(l.Phone)
	if l.Status == "" {
		l.Status = LeadStatusNew
	}
	if l.Source == "" {
		l.Source = LeadSourceWebsite
	}
	return nil
}

// ValidLeadStatus reports whether s is a known lead status.
func ValidLeadStatus(s string) bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusScheduled, LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}

// NormalizePhone strips separators and ensures a leading "+".
func NormalizePhone(phone string) string {
	phone = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	if phone == "" {
		return phone
	}
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	return phone
}

// LeadCreate is the payload for creating a lead.
type LeadCreate struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required,min=8"`
	Email   string `json:"email" validate:"omitempty,email"`
	Source  string `json:"source" validate:"omitempty,oneof=instagram referral walk_in website whatsapp"`
	Goal    string `json:"goal"`
	Notes   string `json:"notes"`
	OwnerID uint   `json:"owner_id"`
}

// LeadUpdate is the payload for patching a lead. Pointer fields distinguish
// "not provided" from zero values.
type LeadUpdate struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Status  *string `json:"status"`
	Goal    *string `json:"goal"`
	Notes   *string `json:"notes"`
	OwnerID *uint   `json:"owner_id"`
}

// LeadFilter narrows lead list queries.
type LeadFilter struct {
	Status string
	Source string
	Search string // matches name or phone substring
	Limit  int
	Offset int
}
