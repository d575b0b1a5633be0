package llm_service

import (
	"context"

	"github.com/jarbasai/jarbas/chat_type"
)

type MockLLMService struct {
	GetResponseFunc func(ctx context.Context, prompt string) (chat_type.LLMResponse, error)
	Calls           int
}

func (m *MockLLMService) GetResponse(ctx context.Context, prompt string) (chat_type.LLMResponse, error) {
	m.Calls++
	if m.GetResponseFunc != nil {
		return m.GetResponseFunc(ctx, prompt)
	}
	return chat_type.LLMResponse{Text: "mock response", Confidence: 0.95}, nil
}
