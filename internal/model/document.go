package model

import "time"

// Document is one ingested source text. Deleting a document cascades to its
// chunks. Processed stays false until the embed worker has vectorized every
// chunk.
type Document struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:256;not null" json:"title"`
	Size       int64     `gorm:"not null" json:"size"`
	ChunkCount int       `gorm:"not null" json:"chunk_count"`
	Processed  bool      `gorm:"not null;default:false" json:"processed"`
	Trusted    bool      `gorm:"not null;default:false" json:"trusted"`
	Category   string    `gorm:"size:64" json:"category"`
	CreatedAt  time.Time `json:"uploaded_at"`
	UpdatedAt  time.Time `json:"-"`
}
