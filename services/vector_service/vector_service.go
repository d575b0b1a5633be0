package vector_service

import (
	"context"

	"github.com/jarbasai/jarbas/chat_type"
)

// Document is a unit of indexed content with its embedding.
type Document struct {
	ID        string
	Content   string
	Metadata  map[string]interface{}
	Embedding []float32
}

// VectorService exposes similarity search over an external vector index.
// Results come back ordered by descending similarity; callers never re-sort.
type VectorService interface {
	SearchSimilar(ctx context.Context, embedding []float32, topK int) ([]chat_type.SearchResult, error)
	UpsertDocuments(ctx context.Context, docs []Document) error
	DeleteDocuments(ctx context.Context, ids []string) error
}
