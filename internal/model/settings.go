package model

import "time"

// Settings is the single process-wide configuration row edited by an admin.
// Version increments on every save so consumers can poll for changes with a
// cheap comparison instead of re-reading the row.
type Settings struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Version       int64     `gorm:"not null;default:0" json:"version"`
	AssistantName string    `gorm:"size:128;not null" json:"assistant_name"`
	SystemPolicy  string    `gorm:"type:text;not null" json:"system_policy"`
	VoiceName     string    `gorm:"size:64" json:"voice_name"`
	UpdatedAt     time.Time `json:"updated_at"`
}
