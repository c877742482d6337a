package model

import (
	"encoding/json"
	"time"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one turn of a conversation. History is append-only; rows are
// never updated in place.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:36;not null;index" json:"session_id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Language  string    `gorm:"size:16" json:"language,omitempty"`
	Citations string    `gorm:"type:text" json:"-"` // JSON array of citation labels
	FromVoice bool      `gorm:"not null;default:false" json:"from_voice"`
	ShareText string    `gorm:"type:text" json:"share_text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CitationList returns the ordered citation labels; nil when none.
func (m *Message) CitationList() []string {
	if m.Citations == "" {
		return nil
	}
	var labels []string
	_ = json.Unmarshal([]byte(m.Citations), &labels)
	return labels
}

// SetCitations stores the ordered citation labels.
func (m *Message) SetCitations(labels []string) {
	if len(labels) == 0 {
		m.Citations = ""
		return
	}
	b, _ := json.Marshal(labels)
	m.Citations = string(b)
}
