package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvoice/internal/model"
)

func seedDocument(t *testing.T, docs *DocumentRepository, title string, contents ...string) *model.Document {
	t.Helper()
	doc := &model.Document{Title: title, ChunkCount: len(contents)}
	batch := make([]model.Chunk, len(contents))
	for i, c := range contents {
		batch[i] = model.Chunk{Content: c}
	}
	require.NoError(t, docs.CreateWithChunks(doc, batch))
	return doc
}

func TestSaveEmbeddingRoundTrip(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepository(db)
	chunks := NewChunkRepository(db)

	doc := seedDocument(t, docs, "calendar", "moon sighting")
	pending, err := chunks.ListPendingByDocumentID(doc.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	pending[0].SetEmbedding([]float32{0.25, -0.5, 1})
	require.NoError(t, chunks.SaveEmbedding(&pending[0]))

	stored, err := chunks.GetByID(pending[0].ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, []float32{0.25, -0.5, 1}, stored.EmbeddingVector())

	pending, err = chunks.ListPendingByDocumentID(doc.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestUpdateContentInvalidatesEmbedding(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepository(db)
	chunks := NewChunkRepository(db)

	doc := seedDocument(t, docs, "calendar", "old text")
	stored, err := chunks.ListByDocumentID(doc.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	stored[0].SetEmbedding([]float32{1, 0})
	require.NoError(t, chunks.SaveEmbedding(&stored[0]))

	require.NoError(t, chunks.UpdateContent(stored[0].ID, "new text"))

	edited, err := chunks.GetByID(stored[0].ID)
	require.NoError(t, err)
	require.NotNil(t, edited)
	assert.Equal(t, "new text", edited.Content)
	assert.True(t, edited.EmbeddingStale)
	assert.Nil(t, edited.EmbeddingVector(), "edited chunk drops out of ranking")

	// and it queues up for the embed worker again
	pending, err := chunks.ListPendingByDocumentID(doc.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
