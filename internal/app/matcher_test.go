package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvoice/internal/model"
)

func chunkWithVec(id uint, content string, vec []float32) model.Chunk {
	c := model.Chunk{ID: id, Content: content}
	c.SetEmbedding(vec)
	return c
}

func TestCosineSimilaritySelf(t *testing.T) {
	v := []float32{0.3, -0.2, 0.9, 0.1}
	score, err := CosineSimilarity(v, v)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-6)
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestFindBestMatchesOrdering(t *testing.T) {
	query := []float32{1, 0}
	corpus := []model.Chunk{
		chunkWithVec(1, "orthogonal", []float32{0, 1}),
		chunkWithVec(2, "aligned", []float32{1, 0}),
		chunkWithVec(3, "diagonal", []float32{1, 1}),
	}

	matches, err := FindBestMatches(query, corpus, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, uint(2), matches[0].ID)
	assert.Equal(t, uint(3), matches[1].ID)
	assert.Equal(t, uint(1), matches[2].ID)
}

func TestFindBestMatchesExcludesMissingEmbeddings(t *testing.T) {
	query := []float32{1, 0}
	corpus := []model.Chunk{
		{ID: 1, Content: "no embedding"},
		chunkWithVec(2, "valid", []float32{1, 0}),
		{ID: 3, Content: "stale", EmbeddingStale: true},
	}

	matches, err := FindBestMatches(query, corpus, 3)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, uint(2), matches[0].ID)
}

func TestFindBestMatchesTopKCut(t *testing.T) {
	query := []float32{1, 0, 0}
	corpus := []model.Chunk{
		chunkWithVec(1, "a", []float32{1, 0, 0}),
		chunkWithVec(2, "b", []float32{0.9, 0.1, 0}),
		chunkWithVec(3, "c", []float32{0.5, 0.5, 0}),
		chunkWithVec(4, "d", []float32{0, 1, 0}),
	}

	matches, err := FindBestMatches(query, corpus, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, uint(1), matches[0].ID)
	assert.Equal(t, uint(2), matches[1].ID)
}

func TestFindBestMatchesStableTies(t *testing.T) {
	query := []float32{1, 0}
	corpus := []model.Chunk{
		chunkWithVec(7, "first", []float32{2, 0}),
		chunkWithVec(8, "second", []float32{4, 0}),
	}

	matches, err := FindBestMatches(query, corpus, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, uint(7), matches[0].ID)
	assert.Equal(t, uint(8), matches[1].ID)
}

func TestFindBestMatchesEmptyQuery(t *testing.T) {
	matches, err := FindBestMatches(nil, []model.Chunk{chunkWithVec(1, "x", []float32{1})}, 3)
	require.NoError(t, err)
	assert.Nil(t, matches)
}

func TestFindBestMatchesDimensionMismatchFails(t *testing.T) {
	corpus := []model.Chunk{chunkWithVec(1, "bad dims", []float32{1, 2, 3})}
	_, err := FindBestMatches([]float32{1, 0}, corpus, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
