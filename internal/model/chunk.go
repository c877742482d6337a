package model

import (
	"encoding/json"
	"time"
)

// Chunk stores a bounded span of a document's text plus its embedding.
// DocumentTitle is denormalized so citations render without a join.
// Embedding is NULL until the embed worker fills it; a chunk without a
// vector (or with EmbeddingStale set after a text edit) never ranks in
// similarity search.
type Chunk struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	DocumentID     uint      `gorm:"not null;index" json:"document_id"`
	DocumentTitle  string    `gorm:"size:256;not null" json:"document_title"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Embedding      *string   `gorm:"type:text" json:"-"` // JSON array of float32, NULL = absent
	EmbeddingStale bool      `gorm:"not null;default:false" json:"embedding_stale"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// EmbeddingVector returns the parsed vector, or nil when the chunk has no
// usable embedding (absent, stale, or unparseable).
func (c *Chunk) EmbeddingVector() []float32 {
	if c.Embedding == nil || c.EmbeddingStale {
		return nil
	}
	var v []float32
	if err := json.Unmarshal([]byte(*c.Embedding), &v); err != nil || len(v) == 0 {
		return nil
	}
	return v
}

// SetEmbedding stores the vector and clears the stale flag. A nil or empty
// vector clears the embedding entirely rather than storing "[]".
func (c *Chunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = nil
		return
	}
	b, _ := json.Marshal(vec)
	s := string(b)
	c.Embedding = &s
	c.EmbeddingStale = false
}
