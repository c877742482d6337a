package app

import (
	"context"
	"log"
	"strings"

	"golang.org/x/time/rate"

	"docvoice/internal/ai"
)

// EmbeddingService converts texts into vectors, rate-limited to stay under
// the provider's request quota. A nil vector marks a text that could not be
// embedded (blank input or a failed call); callers treat it as non-matchable
// rather than an error.
type EmbeddingService struct {
	embedder ai.Embedder
	limiter  *rate.Limiter
	dim      int
}

// NewEmbeddingService builds the service. dim, when positive, is the only
// vector length accepted into the store; vectors of any other length are
// rejected as failed embeddings so they can never be compared against the
// corpus.
func NewEmbeddingService(embedder ai.Embedder, requestsPerSecond, dim int) *EmbeddingService {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	return &EmbeddingService{
		embedder: embedder,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		dim:      dim,
	}
}

// EmbedTexts embeds each text in order and returns one entry per input. A
// failure on one item is logged and yields nil for that item only.
func (s *EmbeddingService) EmbedTexts(ctx context.Context, texts []string) [][]float32 {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			log.Printf("embedding rate wait aborted: %v", err)
			return vectors
		}
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			log.Printf("embed text %d failed: %v", i, err)
			continue
		}
		if s.dim > 0 && len(vec) != s.dim {
			log.Printf("embed text %d returned %d dimensions, want %d", i, len(vec), s.dim)
			continue
		}
		vectors[i] = vec
	}
	return vectors
}

// EmbedQuery embeds a single query string; nil means the query cannot be
// matched and retrieval should degrade to an empty result.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, query string) []float32 {
	vectors := s.EmbedTexts(ctx, []string{query})
	return vectors[0]
}
