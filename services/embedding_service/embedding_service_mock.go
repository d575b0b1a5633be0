package embedding_service

import (
	"context"
)

type MockEmbeddingService struct {
	EmbedQueryFunc func(ctx context.Context, text string) ([]float32, error)
	Calls          int
}

func (m *MockEmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.Calls++
	if m.EmbedQueryFunc != nil {
		return m.EmbedQueryFunc(ctx, text)
	}
	return make([]float32, 1536), nil
}
