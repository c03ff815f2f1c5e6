package models

import (
	"time"

	"gorm.io/gorm"
)

// Message directions
const (
	MessageDirectionInbound  = "inbound"
	MessageDirectionOutbound = "outbound"
)

// Message delivery status constants
const (
	MessageStatusPending   = "pending"
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
	MessageStatusFailed    = "failed"
)

// WhatsAppMessage is one message in a lead's conversation log.
type WhatsAppMessage struct {
	gorm.Model
	LeadID            uint      `json:"lead_id" gorm:"index;not null"`
	Direction         string    `json:"direction"`
	Body              string    `json:"body"`
	ProviderMessageID string    `json:"provider_message_id" gorm:"uniqueIndex"`
	Status            string    `json:"status" gorm:"default:'pending'"`
	SentByID          uint      `json:"sent_by_id"` // staff user for outbound, 0 for inbound
	Timestamp         time.Time `json:"timestamp"`
}

// BeforeCreate defaults the timestamp for messages recorded without one.
func (m *WhatsAppMessage) BeforeCreate(tx *gorm.DB) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return nil
}

// MessageFilter narrows message list queries.
type MessageFilter struct {
	LeadID    uint
	Direction string
	Limit     int
}
