package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docvoice/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// ListAll returns the full corpus the matcher ranks against.
func (r *ChunkRepository) ListAll() ([]model.Chunk, error) {
	var chunks []model.Chunk
	if err := r.db.Order("id ASC").Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list chunks failed: %w", err)
	}
	return chunks, nil
}

func (r *ChunkRepository) ListByDocumentID(documentID uint) ([]model.Chunk, error) {
	var chunks []model.Chunk
	if err := r.db.Where("document_id = ?", documentID).Order("id ASC").Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list chunks by document failed: %w", err)
	}
	return chunks, nil
}

func (r *ChunkRepository) GetByID(id uint) (*model.Chunk, error) {
	var chunk model.Chunk
	if err := r.db.First(&chunk, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chunk failed: %w", err)
	}
	return &chunk, nil
}

// UpdateContent rewrites a chunk's text and invalidates its embedding; the
// chunk drops out of ranking until the embed worker refreshes it.
func (r *ChunkRepository) UpdateContent(id uint, content string) error {
	updates := map[string]interface{}{
		"content":         content,
		"embedding":       nil,
		"embedding_stale": true,
	}
	if err := r.db.Model(&model.Chunk{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update chunk content failed: %w", err)
	}
	return nil
}

func (r *ChunkRepository) SaveEmbedding(chunk *model.Chunk) error {
	updates := map[string]interface{}{
		"embedding":       chunk.Embedding,
		"embedding_stale": chunk.EmbeddingStale,
	}
	if err := r.db.Model(&model.Chunk{}).Where("id = ?", chunk.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("save chunk embedding failed: %w", err)
	}
	return nil
}

// ListPendingByDocumentID returns chunks of a document that still need a
// vector (never embedded, or stale after an edit).
func (r *ChunkRepository) ListPendingByDocumentID(documentID uint) ([]model.Chunk, error) {
	var chunks []model.Chunk
	err := r.db.
		Where("document_id = ?", documentID).
		Where("embedding IS NULL OR embedding_stale = ?", true).
		Order("id ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, fmt.Errorf("list pending chunks failed: %w", err)
	}
	return chunks, nil
}
