package llm_service

import (
	"context"

	"github.com/jarbasai/jarbas/chat_type"
)

// LLMService generates an answer for a fully built prompt. The plain chat
// flow passes the raw question; the vector flow passes a prompt with
// retrieval context already assembled.
type LLMService interface {
	GetResponse(ctx context.Context, prompt string) (chat_type.LLMResponse, error)
}
