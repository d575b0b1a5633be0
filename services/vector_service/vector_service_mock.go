package vector_service

import (
	"context"

	"github.com/jarbasai/jarbas/chat_type"
)

type MockVectorService struct {
	SearchSimilarFunc   func(ctx context.Context, embedding []float32, topK int) ([]chat_type.SearchResult, error)
	UpsertDocumentsFunc func(ctx context.Context, docs []Document) error
	DeleteDocumentsFunc func(ctx context.Context, ids []string) error
	SearchCalls         int
}

func (m *MockVectorService) SearchSimilar(ctx context.Context, embedding []float32, topK int) ([]chat_type.SearchResult, error) {
	m.SearchCalls++
	if m.SearchSimilarFunc != nil {
		return m.SearchSimilarFunc(ctx, embedding, topK)
	}
	return nil, nil
}

func (m *MockVectorService) UpsertDocuments(ctx context.Context, docs []Document) error {
	if m.UpsertDocumentsFunc != nil {
		return m.UpsertDocumentsFunc(ctx, docs)
	}
	return nil
}

func (m *MockVectorService) DeleteDocuments(ctx context.Context, ids []string) error {
	if m.DeleteDocumentsFunc != nil {
		return m.DeleteDocumentsFunc(ctx, ids)
	}
	return nil
}
