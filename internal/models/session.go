package models

import (
	"time"

	"gorm.io/gorm"
)

// WhatsAppSession stores the conversation gate state for one WhatsApp number
type WhatsAppSession struct {
	gorm.Model
	PhoneNumber string `json:"phone_number" gorm:"uniqueIndex;not null"`

	SearchEnabled   bool       `json:"search_enabled" gorm:"not null"`
	SearchEnabledAt *time.Time `json:"search_enabled_at"`

	MutedUntil   *time.Time `json:"muted_until"`
	HardPaused   bool       `json:"hard_paused" gorm:"not null"`
	PauseForever bool       `json:"pause_forever" gorm:"not null"`
	PausedMode   string     `json:"paused_mode"`
	PausedAt     *time.Time `json:"paused_at"`

	WelcomeShown   bool       `json:"welcome_shown" gorm:"not null"`
	ResumeSentOnce bool       `json:"resume_sent_once" gorm:"not null"`
	ResumeSentAt   *time.Time `json:"resume_sent_at"`
}
