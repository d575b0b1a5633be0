package chat_type

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinQuestionLength = 1
	MaxQuestionLength = 1000
)

// QuestionRequest is the body accepted by every chat endpoint.
type QuestionRequest struct {
	Question string                 `json:"question"`
	UserID   string                 `json:"user_id,omitempty"`
	Context  map[string]interface{} `json:"context,omitempty"`
}

// Validate enforces the question bounds before any provider is called.
func (r *QuestionRequest) Validate() error {
	trimmed := strings.TrimSpace(r.Question)
	if len(trimmed) < MinQuestionLength {
		return fmt.Errorf("question cannot be empty")
	}
	if len(r.Question) > MaxQuestionLength {
		return fmt.Errorf("question exceeds maximum length of %d characters", MaxQuestionLength)
	}
	return nil
}

type LLMResponse struct {
	Text       string                 `json:"text"`
	Confidence float64                `json:"confidence"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

type AvatarResponse struct {
	AvatarURL     string                 `json:"avatar_url"`
	AnimationData map[string]interface{} `json:"animation_data"`
}

// ChatResponse is the cached answer envelope returned by the plain chat flow.
type ChatResponse struct {
	Question       string          `json:"question"`
	TextResponse   LLMResponse     `json:"text_response"`
	AvatarResponse *AvatarResponse `json:"avatar_response,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	CacheHit       bool            `json:"cache_hit"`
}

// VectorChatResponse extends the envelope with the retrieval context used to
// ground the answer.
type VectorChatResponse struct {
	ChatResponse
	Context []string `json:"context"`
	Sources []string `json:"sources"`
	Cached  bool     `json:"cached"`
}

// SearchResult is a single snippet returned by a vector store, ordered by
// descending similarity. The "source" metadata key carries attribution.
type SearchResult struct {
	ID         string                 `json:"id"`
	Content    string                 `json:"content"`
	Metadata   map[string]interface{} `json:"metadata"`
	Similarity float64                `json:"similarity"`
}

// Source returns the attribution for a search result, falling back to a
// placeholder when the indexer stored none.
func (r *SearchResult) Source() string {
	if src, ok := r.Metadata["source"].(string); ok && src != "" {
		return src
	}
	return "Desconhecida"
}
