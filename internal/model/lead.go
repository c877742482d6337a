package model

import "time"

// Lead is a captured contact identifier tied to the conversation context
// that triggered the capture. Created once, never updated.
type Lead struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PhoneNumber string    `gorm:"size:64;not null" json:"phone_number"`
	Context     string    `gorm:"size:128" json:"context"`
	CreatedAt   time.Time `json:"created_at"`
}
