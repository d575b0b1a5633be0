package vector_llm_service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarbasai/jarbas/chat_type"
	"github.com/jarbasai/jarbas/services/cache_service"
	"github.com/jarbasai/jarbas/services/embedding_service"
	"github.com/jarbasai/jarbas/services/llm_service"
	"github.com/jarbasai/jarbas/services/vector_service"
)

type pipelineFixture struct {
	embeddings *embedding_service.MockEmbeddingService
	vectorDB   *vector_service.MockVectorService
	llm        *llm_service.MockLLMService
	cache      *cache_service.CacheService
	service    *VectorLLMService
}

func newPipelineFixture(t *testing.T, config Config) *pipelineFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	cache := cache_service.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour, logger)

	f := &pipelineFixture{
		embeddings: &embedding_service.MockEmbeddingService{},
		vectorDB: &vector_service.MockVectorService{
			SearchSimilarFunc: func(ctx context.Context, embedding []float32, topK int) ([]chat_type.SearchResult, error) {
				return []chat_type.SearchResult{
					{
						ID:         "doc1",
						Content:    "Paris é a capital da França.",
						Metadata:   map[string]interface{}{"source": "geografia.pdf"},
						Similarity: 0.92,
					},
				}, nil
			},
		},
		llm: &llm_service.MockLLMService{
			GetResponseFunc: func(ctx context.Context, prompt string) (chat_type.LLMResponse, error) {
				return chat_type.LLMResponse{Text: "A capital da França é Paris.", Confidence: 0.95}, nil
			},
		},
		cache: cache,
	}
	f.service = New(config, f.embeddings, f.vectorDB, f.llm, nil, cache, logger)
	return f
}

func TestGetResponseCacheMiss(t *testing.T) {
	f := newPipelineFixture(t, Config{UseCache: true})

	resp, err := f.service.GetResponse(context.Background(), "What is the capital of France?", "")
	require.NoError(t, err)

	assert.False(t, resp.CacheHit)
	assert.Equal(t, "A capital da França é Paris.", resp.TextResponse.Text)
	assert.Equal(t, []string{"Paris é a capital da França."}, resp.Context)
	assert.Equal(t, []string{"geografia.pdf"}, resp.Sources)
	assert.Equal(t, 1, f.embeddings.Calls)
	assert.Equal(t, 1, f.vectorDB.SearchCalls)
	assert.Equal(t, 1, f.llm.Calls)
}

func TestGetResponseCacheHitShortCircuits(t *testing.T) {
	f := newPipelineFixture(t, Config{UseCache: true})
	ctx := context.Background()

	first, err := f.service.GetResponse(ctx, "What is the capital of France?", "")
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	second, err := f.service.GetResponse(ctx, "What is the capital of France?", "")
	require.NoError(t, err)

	assert.True(t, second.CacheHit)
	assert.Equal(t, first.TextResponse.Text, second.TextResponse.Text)
	// No downstream provider may run on a hit.
	assert.Equal(t, 1, f.embeddings.Calls)
	assert.Equal(t, 1, f.vectorDB.SearchCalls)
	assert.Equal(t, 1, f.llm.Calls)
}

func TestGetResponseNormalizedQuestionsShareCacheEntry(t *testing.T) {
	f := newPipelineFixture(t, Config{UseCache: true})
	ctx := context.Background()

	_, err := f.service.GetResponse(ctx, "What is RAG?", "")
	require.NoError(t, err)

	resp, err := f.service.GetResponse(ctx, "  WHAT IS RAG?  ", "")
	require.NoError(t, err)
	assert.True(t, resp.CacheHit)
	assert.Equal(t, 1, f.llm.Calls)
}

func TestGetResponseEmbeddingFailureDegrades(t *testing.T) {
	f := newPipelineFixture(t, Config{UseCache: true})
	f.embeddings.EmbedQueryFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding provider down")
	}

	resp, err := f.service.GetResponse(context.Background(), "pergunta qualquer", "")
	require.NoError(t, err)

	assert.Contains(t, resp.TextResponse.Text, "Desculpe")
	assert.Empty(t, resp.Context)
	assert.Empty(t, resp.Sources)
	assert.False(t, resp.Cached)
	assert.Equal(t, 0, f.vectorDB.SearchCalls)
	assert.Equal(t, 0, f.llm.Calls)
}

func TestGetResponseSearchFailureDegrades(t *testing.T) {
	f := newPipelineFixture(t, Config{UseCache: true})
	f.vectorDB.SearchSimilarFunc = func(ctx context.Context, embedding []float32, topK int) ([]chat_type.SearchResult, error) {
		return nil, errors.New("index unavailable")
	}

	resp, err := f.service.GetResponse(context.Background(), "pergunta", "")
	require.NoError(t, err)
	assert.Contains(t, resp.TextResponse.Text, "Desculpe")
}

func TestGetResponseGenerationFailureDegrades(t *testing.T) {
	f := newPipelineFixture(t, Config{UseCache: true})
	f.llm.GetResponseFunc = func(ctx context.Context, prompt string) (chat_type.LLMResponse, error) {
		return chat_type.LLMResponse{}, errors.New("model unavailable")
	}

	resp, err := f.service.GetResponse(context.Background(), "pergunta", "")
	require.NoError(t, err)
	assert.Contains(t, resp.TextResponse.Text, "Desculpe")
}

func TestGetResponseEmptyQuestionDegrades(t *testing.T) {
	f := newPipelineFixture(t, Config{UseCache: true})

	resp, err := f.service.GetResponse(context.Background(), "", "")
	require.NoError(t, err)
	assert.Contains(t, resp.TextResponse.Text, "Desculpe")
	assert.Equal(t, 0, f.embeddings.Calls)
}

func TestGetResponseFailModeSurfacesError(t *testing.T) {
	f := newPipelineFixture(t, Config{UseCache: true, OnError: OnErrorFail})
	f.embeddings.EmbedQueryFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding provider down")
	}

	_, err := f.service.GetResponse(context.Background(), "pergunta", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed")
}

func TestGetResponseDegradedAnswerIsNotCached(t *testing.T) {
	f := newPipelineFixture(t, Config{UseCache: true})
	ctx := context.Background()

	f.embeddings.EmbedQueryFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("transient outage")
	}
	resp, err := f.service.GetResponse(ctx, "pergunta de novo", "")
	require.NoError(t, err)
	require.Contains(t, resp.TextResponse.Text, "Desculpe")

	// Once the provider recovers the same question must recompute.
	f.embeddings.EmbedQueryFunc = nil
	resp, err = f.service.GetResponse(ctx, "pergunta de novo", "")
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
	assert.Equal(t, "A capital da França é Paris.", resp.TextResponse.Text)
}

func TestGetResponsePromptCarriesContextAndQuestion(t *testing.T) {
	f := newPipelineFixture(t, Config{UseCache: false})
	var seenPrompt string
	f.llm.GetResponseFunc = func(ctx context.Context, prompt string) (chat_type.LLMResponse, error) {
		seenPrompt = prompt
		return chat_type.LLMResponse{Text: "ok"}, nil
	}

	_, err := f.service.GetResponse(context.Background(), "Qual é a capital da França?", "")
	require.NoError(t, err)

	assert.True(t, strings.Contains(seenPrompt, "[Source: geografia.pdf]"))
	assert.True(t, strings.Contains(seenPrompt, "Qual é a capital da França?"))
}

func TestGetResponseCacheDisabledAlwaysRecomputes(t *testing.T) {
	f := newPipelineFixture(t, Config{UseCache: false})
	ctx := context.Background()

	_, err := f.service.GetResponse(ctx, "mesma pergunta", "")
	require.NoError(t, err)
	_, err = f.service.GetResponse(ctx, "mesma pergunta", "")
	require.NoError(t, err)
	assert.Equal(t, 2, f.llm.Calls)
}
