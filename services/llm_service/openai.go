package llm_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jarbasai/jarbas/chat_type"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

type OpenAIService struct {
	httpClient  *http.Client
	apiURL      string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	maxRetries  int
	retryDelay  time.Duration
	logger      *slog.Logger
}

func NewOpenAIService(apiKey, model string, temperature float64, maxTokens int, logger *slog.Logger) *OpenAIService {
	return &OpenAIService{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		apiURL:      defaultAPIURL,
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		maxRetries:  3,
		retryDelay:  5 * time.Second,
		logger:      logger,
	}
}

// SetAPIURL points the service at a different endpoint, used by tests.
func (s *OpenAIService) SetAPIURL(url string) {
	s.apiURL = url
}

func (s *OpenAIService) GetResponse(ctx context.Context, prompt string) (chat_type.LLMResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		response, err := s.callOpenAI(ctx, prompt)
		if err == nil {
			return response, nil
		}
		lastErr = err

		if httpErr, ok := err.(*OpenAIHttpError); ok {
			if httpErr.StatusCode == http.StatusTooManyRequests {
				s.logger.Error("OpenAI API quota exceeded",
					slog.String("error_type", httpErr.ErrorType),
					slog.String("error_message", httpErr.Message),
					slog.String("model", s.model),
					slog.Int("status_code", httpErr.StatusCode))
				return chat_type.LLMResponse{}, fmt.Errorf("OpenAI quota exceeded: %s (Type: %s)", httpErr.Message, httpErr.ErrorType)
			}

			s.logger.Error("OpenAI API error",
				slog.Int("attempt", attempt),
				slog.Int("status_code", httpErr.StatusCode),
				slog.String("error_type", httpErr.ErrorType),
				slog.String("error_message", httpErr.Message))
		}

		if attempt == s.maxRetries {
			break
		}

		s.logger.Warn("Attempt failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("retry_delay", s.retryDelay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(s.retryDelay):
		case <-ctx.Done():
			return chat_type.LLMResponse{}, ctx.Err()
		}
	}

	return chat_type.LLMResponse{}, fmt.Errorf("failed to call OpenAI API after %d attempts: %w", s.maxRetries, lastErr)
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (s *OpenAIService) callOpenAI(ctx context.Context, prompt string) (chat_type.LLMResponse, error) {
	messages := []map[string]string{
		{"role": "system", "content": "Você é um assistente útil."},
		{"role": "user", "content": prompt},
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model":       s.model,
		"messages":    messages,
		"temperature": s.temperature,
		"max_tokens":  s.maxTokens,
	})
	if err != nil {
		return chat_type.LLMResponse{}, fmt.Errorf("error marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return chat_type.LLMResponse{}, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return chat_type.LLMResponse{}, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		rawBody, openAIErr := extractOpenAIErrorDetails(resp)
		httpErr := &OpenAIHttpError{
			StatusCode: resp.StatusCode,
			RawBody:    rawBody,
			Message:    "Unknown error",
			ErrorType:  "unknown",
		}
		if openAIErr != nil {
			httpErr.Message = openAIErr.Error.Message
			httpErr.ErrorType = openAIErr.Error.Type
		}
		return chat_type.LLMResponse{}, httpErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return chat_type.LLMResponse{}, fmt.Errorf("error reading response body: %w", err)
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return chat_type.LLMResponse{}, fmt.Errorf("error unmarshaling response: %w", err)
	}

	if len(result.Choices) == 0 {
		return chat_type.LLMResponse{}, fmt.Errorf("unexpected response format from OpenAI API")
	}

	return chat_type.LLMResponse{
		Text:       result.Choices[0].Message.Content,
		Confidence: 0.95,
		Metadata: map[string]interface{}{
			"model": s.model,
			"usage": map[string]int{
				"prompt_tokens":     result.Usage.PromptTokens,
				"completion_tokens": result.Usage.CompletionTokens,
				"total_tokens":      result.Usage.TotalTokens,
			},
		},
	}, nil
}
