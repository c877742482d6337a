package app

import (
	"context"
	"errors"
	"log"
	"strings"

	"docvoice/internal/model"
	"docvoice/internal/repository"
)

var ErrDocumentNotFound = errors.New("document not found")

// IngestService owns the document half of the knowledge store: chunking on
// upload, async embedding via the embed queue, deletion, and the post-hoc
// chunk corrections that invalidate embeddings.
type IngestService struct {
	docRepo   *repository.DocumentRepository
	chunkRepo *repository.ChunkRepository
	embedSvc  *EmbeddingService
	publisher queuePublisher
	chunkSize int
}

func NewIngestService(
	docRepo *repository.DocumentRepository,
	chunkRepo *repository.ChunkRepository,
	embedSvc *EmbeddingService,
	publisher queuePublisher,
	chunkSize int,
) *IngestService {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	return &IngestService{
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		embedSvc:  embedSvc,
		publisher: publisher,
		chunkSize: chunkSize,
	}
}

type IngestInput struct {
	Title   string
	Content string
	Size    int64
}

// Ingest chunks the extracted text and stores the document atomically with
// its chunk batch. Embedding happens asynchronously; the document stays
// unprocessed until the embed worker finishes.
func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*model.Document, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || strings.TrimSpace(input.Content) == "" {
		return nil, ErrInvalidInput
	}

	pieces := SplitChunks(input.Content, s.chunkSize)
	chunks := make([]model.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		chunks = append(chunks, model.Chunk{Content: piece})
	}

	doc := &model.Document{
		Title:      title,
		Size:       input.Size,
		ChunkCount: len(chunks),
	}
	if err := s.docRepo.CreateWithChunks(doc, chunks); err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, model.EmbedJob{DocumentID: doc.ID}); err != nil {
		// The document stays unprocessed; re-publishing the job recovers it.
		log.Printf("enqueue embed job for document %d failed: %v", doc.ID, err)
	}
	return doc, nil
}

// EmbedPending embeds every chunk of the document that still needs a vector
// (the whole document when chunkID is zero, one chunk otherwise) and marks
// the document processed once nothing is pending. Called by the embed
// worker, never inline with a request.
func (s *IngestService) EmbedPending(ctx context.Context, documentID, chunkID uint) error {
	var pending []model.Chunk
	if chunkID != 0 {
		chunk, err := s.chunkRepo.GetByID(chunkID)
		if err != nil {
			return err
		}
		if chunk != nil && chunk.EmbeddingVector() == nil {
			pending = append(pending, *chunk)
		}
	} else {
		var err error
		pending, err = s.chunkRepo.ListPendingByDocumentID(documentID)
		if err != nil {
			return err
		}
	}

	for i := range pending {
		vec := s.embedSvc.EmbedQuery(ctx, pending[i].Content)
		if vec == nil {
			// Failed or blank; the chunk stays pending and out of ranking.
			log.Printf("embedding chunk %d yielded no vector", pending[i].ID)
			continue
		}
		pending[i].SetEmbedding(vec)
		if err := s.chunkRepo.SaveEmbedding(&pending[i]); err != nil {
			return err
		}
	}

	remaining, err := s.chunkRepo.ListPendingByDocumentID(documentID)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		return s.docRepo.MarkProcessed(documentID)
	}
	return nil
}

func (s *IngestService) ListDocuments() ([]model.Document, error) {
	return s.docRepo.List()
}

func (s *IngestService) GetDocument(id uint) (*model.Document, error) {
	doc, err := s.docRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

func (s *IngestService) DeleteDocument(id uint) error {
	doc, err := s.docRepo.GetByID(id)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	return s.docRepo.Delete(id)
}

func (s *IngestService) UpdateDocumentTags(id uint, trusted bool, category string) error {
	doc, err := s.docRepo.GetByID(id)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	return s.docRepo.UpdateTags(id, trusted, category)
}

func (s *IngestService) ListChunks(documentID uint) ([]model.Chunk, error) {
	return s.chunkRepo.ListByDocumentID(documentID)
}

// UpdateChunkText applies a post-hoc correction. The stored embedding is
// invalidated in the same statement and a re-embed job is queued, so a
// corrected chunk never ranks under its old vector.
func (s *IngestService) UpdateChunkText(ctx context.Context, chunkID uint, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrInvalidInput
	}
	chunk, err := s.chunkRepo.GetByID(chunkID)
	if err != nil {
		return err
	}
	if chunk == nil {
		return ErrDocumentNotFound
	}
	if err := s.chunkRepo.UpdateContent(chunkID, content); err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, model.EmbedJob{DocumentID: chunk.DocumentID, ChunkID: chunkID}); err != nil {
		log.Printf("enqueue re-embed for chunk %d failed: %v", chunkID, err)
	}
	return nil
}
