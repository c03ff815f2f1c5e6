package models

import "gorm.io/gorm"

// WhatsAppSettings is the single-row messaging gateway configuration.
// API key and verify token are write-only through the API.
type WhatsAppSettings struct {
	gorm.Model
	Provider           string `json:"provider" gorm:"default:'evolution'"`
	InstanceName       string `json:"instance_name"`
	APIURL             string `json:"api_url"`
	APIKey             string `json:"-"`
	WebhookVerifyToken string `json:"-"`
	Enabled            bool   `json:"enabled" gorm:"default:false"`
	AutoCreateLeads    bool   `json:"auto_create_leads" gorm:"default:true"`
}

// SettingsUpdate is the payload for updating WhatsApp settings.
type SettingsUpdate struct {
	Provider           *string `json:"provider" validate:"omitempty,oneof=evolution twilio"`
	InstanceName       *string `json:"instance_name"`
	APIURL             *string `json:"api_url"`
	APIKey             *string `json:"api_key"`
	WebhookVerifyToken *string `json:"webhook_verify_token"`
	Enabled            *bool   `json:"enabled"`
	AutoCreateLeads    *bool   `json:"auto_create_leads"`
}
