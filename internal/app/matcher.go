package app

import (
	"fmt"
	"math"
	"sort"

	"docvoice/internal/model"
)

// missingEmbeddingScore sorts below every valid cosine value, which lives in
// [-1, 1].
const missingEmbeddingScore = -2.0

var ErrDimensionMismatch = fmt.Errorf("embedding dimension mismatch")

// CosineSimilarity computes dot(a, b) / (|a| * |b|). Vectors of different
// lengths are a caller error, never silently padded.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// FindBestMatches ranks the corpus by cosine similarity against the query
// vector and returns up to topK chunks in descending relevance. Chunks
// without a usable embedding never appear in the result. Ties keep corpus
// order. A chunk whose embedding length differs from the query's fails the
// whole call.
func FindBestMatches(query []float32, corpus []model.Chunk, topK int) ([]model.Chunk, error) {
	if len(query) == 0 || topK <= 0 {
		return nil, nil
	}

	type scored struct {
		chunk model.Chunk
		score float64
	}
	ranked := make([]scored, 0, len(corpus))
	for _, chunk := range corpus {
		vec := chunk.EmbeddingVector()
		if vec == nil {
			ranked = append(ranked, scored{chunk: chunk, score: missingEmbeddingScore})
			continue
		}
		score, err := CosineSimilarity(query, vec)
		if err != nil {
			return nil, fmt.Errorf("score chunk %d failed: %w", chunk.ID, err)
		}
		ranked = append(ranked, scored{chunk: chunk, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	matches := make([]model.Chunk, 0, topK)
	for _, entry := range ranked {
		if len(matches) == topK {
			break
		}
		if entry.score == missingEmbeddingScore {
			break
		}
		matches = append(matches, entry.chunk)
	}
	return matches, nil
}
