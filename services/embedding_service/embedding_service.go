package embedding_service

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// EmbeddingService converts text into a fixed-dimension vector.
type EmbeddingService interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type OpenAIEmbeddingService struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dimension int
	logger    *slog.Logger
}

func NewOpenAIEmbeddingService(apiKey string, model string, dimension int, logger *slog.Logger) *OpenAIEmbeddingService {
	return &OpenAIEmbeddingService{
		client:    openai.NewClient(apiKey),
		model:     openai.EmbeddingModel(model),
		dimension: dimension,
		logger:    logger,
	}
}

// NewOpenAIEmbeddingServiceWithConfig allows pointing the client at a
// different endpoint, used by tests.
func NewOpenAIEmbeddingServiceWithConfig(cfg openai.ClientConfig, model string, dimension int, logger *slog.Logger) *OpenAIEmbeddingService {
	return &OpenAIEmbeddingService{
		client:    openai.NewClientWithConfig(cfg),
		model:     openai.EmbeddingModel(model),
		dimension: dimension,
		logger:    logger,
	}
}

func (s *OpenAIEmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: s.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data received")
	}

	embedding := resp.Data[0].Embedding
	if s.dimension > 0 && len(embedding) != s.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.dimension, len(embedding))
	}

	s.logger.Debug("Generated query embedding",
		slog.Int("dimension", len(embedding)),
		slog.Int("prompt_tokens", resp.Usage.PromptTokens))

	return embedding, nil
}
