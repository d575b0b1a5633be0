package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jarbasai/jarbas/chat_type"
	"github.com/jarbasai/jarbas/services/avatar_service"
	"github.com/jarbasai/jarbas/services/cache_service"
	"github.com/jarbasai/jarbas/services/llm_service"
)

// VectorAnswerer answers a question with retrieval-augmented context.
type VectorAnswerer interface {
	GetResponse(ctx context.Context, query string, userID string) (chat_type.VectorChatResponse, error)
}

// ChatHandler serves the direct question/answer endpoints. The plain flow
// surfaces provider failures as HTTP 500; the retrieval flow delegates its
// error policy to the vector service.
type ChatHandler struct {
	llm    llm_service.LLMService
	avatar avatar_service.AvatarService
	cache  *cache_service.CacheService
	vector VectorAnswerer
	logger *slog.Logger
}

func NewChatHandler(llm llm_service.LLMService, avatar avatar_service.AvatarService,
	cache *cache_service.CacheService, vector VectorAnswerer, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		llm:    llm,
		avatar: avatar,
		cache:  cache,
		vector: vector,
		logger: logger,
	}
}

func (h *ChatHandler) ProcessChat(w http.ResponseWriter, r *http.Request) {
	h.answerPlain(w, r, "Erro ao processar chat")
}

func (h *ChatHandler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	h.answerPlain(w, r, "Erro ao processar pergunta")
}

func (h *ChatHandler) answerPlain(w http.ResponseWriter, r *http.Request, errPrefix string) {
	var request chat_type.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := request.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	cacheKey := h.cache.GenerateCacheKey(request.Question, request.UserID)
	if cached := h.cache.GetCachedResponse(ctx, cacheKey); cached != nil {
		cached.CacheHit = true
		writeJSON(w, http.StatusOK, cached.ChatResponse)
		return
	}

	// Issue the LLM call immediately so its latency overlaps the rest of the
	// handler, then await it.
	type llmResult struct {
		response chat_type.LLMResponse
		err      error
	}
	llmCh := make(chan llmResult, 1)
	go func() {
		response, err := h.llm.GetResponse(ctx, request.Question)
		llmCh <- llmResult{response: response, err: err}
	}()

	result := <-llmCh
	if result.err != nil {
		h.logger.Error("Failed to generate answer",
			slog.String("question", request.Question),
			slog.String("error", result.err.Error()))
		http.Error(w, fmt.Sprintf("%s: %v", errPrefix, result.err), http.StatusInternalServerError)
		return
	}

	avatarResponse, err := h.avatar.GenerateAvatar(ctx, result.response.Text)
	if err != nil {
		h.logger.Error("Failed to synthesize avatar",
			slog.String("question", request.Question),
			slog.String("error", err.Error()))
		http.Error(w, fmt.Sprintf("%s: %v", errPrefix, err), http.StatusInternalServerError)
		return
	}

	response := chat_type.ChatResponse{
		Question:       request.Question,
		TextResponse:   result.response,
		AvatarResponse: avatarResponse,
		Timestamp:      time.Now().UTC(),
		CacheHit:       false,
	}

	h.cache.SetCachedResponse(ctx, cacheKey, &chat_type.VectorChatResponse{ChatResponse: response})

	writeJSON(w, http.StatusOK, response)
}

func (h *ChatHandler) VectorAsk(w http.ResponseWriter, r *http.Request) {
	var request chat_type.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Validation happens inside the vector service so an invalid question can
	// degrade into the apology envelope instead of faulting.
	response, err := h.vector.GetResponse(r.Context(), request.Question, request.UserID)
	if err != nil {
		h.logger.Error("Failed to answer with retrieval",
			slog.String("question", request.Question),
			slog.String("error", err.Error()))
		http.Error(w, fmt.Sprintf("Erro ao processar pergunta: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *ChatHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *ChatHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to Jarbas API"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
