package vector_llm_service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jarbasai/jarbas/chat_type"
	"github.com/jarbasai/jarbas/services/avatar_service"
	"github.com/jarbasai/jarbas/services/cache_service"
	"github.com/jarbasai/jarbas/services/embedding_service"
	"github.com/jarbasai/jarbas/services/llm_service"
	"github.com/jarbasai/jarbas/services/vector_service"
)

const DefaultPromptTemplate = `Use o contexto abaixo para responder à pergunta. Se a resposta não puder ser encontrada no contexto, responda que não tem informação suficiente para responder.

Contexto:
{context}

Pergunta: {question}

Resposta:`

// ApologyMessage is the fixed degraded-answer text returned when any provider
// in the retrieval path fails.
const ApologyMessage = "Desculpe, ocorreu um erro ao processar sua pergunta."

// Error policy for the retrieval path.
const (
	OnErrorDegrade = "degrade"
	OnErrorFail    = "fail"
)

type Config struct {
	MaxContextTokens int
	TopK             int
	PromptTemplate   string
	UseCache         bool
	// OnError selects between recovering provider failures into a degraded
	// envelope and surfacing them to the caller.
	OnError string
}

// VectorLLMService orchestrates embed → search → assemble → generate →
// synthesize → cache for a single question.
type VectorLLMService struct {
	config     Config
	embeddings embedding_service.EmbeddingService
	vectorDB   vector_service.VectorService
	llm        llm_service.LLMService
	avatar     avatar_service.AvatarService
	cache      *cache_service.CacheService
	logger     *slog.Logger
}

// New wires the pipeline. avatar may be nil when the caller's flow does not
// synthesize audio; cache may be nil when caching is disabled.
func New(config Config, embeddings embedding_service.EmbeddingService, vectorDB vector_service.VectorService,
	llm llm_service.LLMService, avatar avatar_service.AvatarService, cache *cache_service.CacheService,
	logger *slog.Logger) *VectorLLMService {
	if config.TopK == 0 {
		config.TopK = 5
	}
	if config.MaxContextTokens == 0 {
		config.MaxContextTokens = 4000
	}
	if config.PromptTemplate == "" {
		config.PromptTemplate = DefaultPromptTemplate
	}
	if config.OnError == "" {
		config.OnError = OnErrorDegrade
	}
	return &VectorLLMService{
		config:     config,
		embeddings: embeddings,
		vectorDB:   vectorDB,
		llm:        llm,
		avatar:     avatar,
		cache:      cache,
		logger:     logger,
	}
}

// GetResponse answers a question with retrieval-augmented context. A cache
// hit short-circuits every downstream provider. On a miss, any provider
// failure is recovered into the degraded envelope when OnError is "degrade".
func (s *VectorLLMService) GetResponse(ctx context.Context, query string, userID string) (chat_type.VectorChatResponse, error) {
	var cacheKey string
	if s.useCache() {
		cacheKey = s.cache.GenerateCacheKey(query, userID)
		if cached := s.cache.GetCachedResponse(ctx, cacheKey); cached != nil {
			cached.CacheHit = true
			cached.Cached = true
			s.logger.Debug("Answer served from cache", slog.String("cache_key", cacheKey))
			return *cached, nil
		}
	}

	response, err := s.answer(ctx, query)
	if err != nil {
		if s.config.OnError == OnErrorFail {
			return chat_type.VectorChatResponse{}, err
		}
		s.logger.Error("Degrading to apology answer",
			slog.String("question", query),
			slog.String("error", err.Error()))
		return s.degradedResponse(query), nil
	}

	if s.useCache() {
		s.cache.SetCachedResponse(ctx, cacheKey, &response)
	}
	return response, nil
}

func (s *VectorLLMService) answer(ctx context.Context, query string) (chat_type.VectorChatResponse, error) {
	req := chat_type.QuestionRequest{Question: query}
	if err := req.Validate(); err != nil {
		return chat_type.VectorChatResponse{}, fmt.Errorf("invalid question: %w", err)
	}

	embedding, err := s.embeddings.EmbedQuery(ctx, query)
	if err != nil {
		return chat_type.VectorChatResponse{}, fmt.Errorf("failed to embed question: %w", err)
	}

	results, err := s.vectorDB.SearchSimilar(ctx, embedding, s.config.TopK)
	if err != nil {
		return chat_type.VectorChatResponse{}, fmt.Errorf("failed to search similar documents: %w", err)
	}

	charBudget := s.config.MaxContextTokens * 4 // Rough token-to-char estimate.
	formattedContext := FormatContext(results, charBudget)
	prompt := fillPrompt(s.config.PromptTemplate, formattedContext, query)

	llmResponse, err := s.llm.GetResponse(ctx, prompt)
	if err != nil {
		return chat_type.VectorChatResponse{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	response := chat_type.VectorChatResponse{
		ChatResponse: chat_type.ChatResponse{
			Question:     query,
			TextResponse: llmResponse,
			Timestamp:    time.Now().UTC(),
		},
		Context: make([]string, 0, len(results)),
		Sources: make([]string, 0, len(results)),
	}
	for i := range results {
		response.Context = append(response.Context, results[i].Content)
		source, _ := results[i].Metadata["source"].(string)
		response.Sources = append(response.Sources, source)
	}

	if s.avatar != nil {
		avatarResponse, err := s.avatar.GenerateAvatar(ctx, llmResponse.Text)
		if err != nil {
			return chat_type.VectorChatResponse{}, fmt.Errorf("failed to synthesize avatar: %w", err)
		}
		response.AvatarResponse = avatarResponse
	}

	return response, nil
}

func (s *VectorLLMService) degradedResponse(query string) chat_type.VectorChatResponse {
	return chat_type.VectorChatResponse{
		ChatResponse: chat_type.ChatResponse{
			Question:     query,
			TextResponse: chat_type.LLMResponse{Text: ApologyMessage},
			Timestamp:    time.Now().UTC(),
		},
		Context: []string{},
		Sources: []string{},
		Cached:  false,
	}
}

func (s *VectorLLMService) useCache() bool {
	return s.config.UseCache && s.cache != nil
}
