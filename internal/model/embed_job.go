package model

// EmbedJob is the queue payload asking the embed worker to vectorize pending
// chunks. ChunkID zero means every unembedded chunk of the document.
type EmbedJob struct {
	DocumentID uint `json:"document_id"`
	ChunkID    uint `json:"chunk_id,omitempty"`
}
