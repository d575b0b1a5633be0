package avatar_service

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

// AvatarService synthesizes a playable audio rendition of answer text.
type AvatarService interface {
	GenerateAvatar(ctx context.Context, text string) (*chat_type.AvatarResponse, error)
}

// HuggingFaceAvatarService calls the hosted inference API for text-to-speech.
// A 503 means the model is still warming up and is retried with a fixed
// delay; any other failure propagates immediately.
type HuggingFaceAvatarService struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	model      string
	maxRetries int
	retryDelay time.Duration
	store      *ArtifactStore
	logger     *slog.Logger
}

func NewHuggingFaceAvatarService(apiKey, model string, timeout time.Duration, maxRetries int, store *ArtifactStore, logger *slog.Logger) *HuggingFaceAvatarService {
	return &HuggingFaceAvatarService{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     fmt.Sprintf("https://api-inference.huggingface.co/models/%s", model),
		apiKey:     apiKey,
		model:      model,
		maxRetries: maxRetries,
		retryDelay: 5 * time.Second,
		store:      store,
		logger:     logger,
	}
}

// SetAPIURL points the service at a different endpoint, used by tests.
func (s *HuggingFaceAvatarService) SetAPIURL(url string) {
	s.apiURL = url
}

type HuggingFaceHttpError struct {
	StatusCode int
	Message    string
	RawBody    string
}

func (e *HuggingFaceHttpError) Error() string {
	return fmt.Sprintf("HuggingFace API error (HTTP %d): %s", e.StatusCode, e.Message)
}

func (s *HuggingFaceAvatarService) GenerateAvatar(ctx context.Context, text string) (*chat_type.AvatarResponse, error) {
	audio, err := s.synthesize(ctx, text)
	if err != nil {
		return nil, err
	}

	artifact, err := s.store.Save(bytes.NewReader(audio), "audio/wav", ".wav")
	if err != nil {
		return nil, fmt.Errorf("failed to store audio artifact: %w", err)
	}

	s.logger.Info("Generated avatar audio",
		slog.String("artifact_id", artifact.ID),
		slog.String("model", s.model),
		slog.Int64("size", artifact.Size))

	return &chat_type.AvatarResponse{
		AvatarURL: artifact.URL,
		AnimationData: map[string]interface{}{
			"artifact_id": artifact.ID,
			"audio_file":  artifact.Path,
			"mime_type":   artifact.MimeType,
		},
	}, nil
}

func (s *HuggingFaceAvatarService) synthesize(ctx context.Context, text string) ([]byte, error) {
	requestBody, err := json.Marshal(map[string]interface{}{
		"inputs": text,
		"options": map[string]bool{
			"use_cache":      true,
			"wait_for_model": true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request body: %w", err)
	}

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(requestBody))
		if err != nil {
			return nil, fmt.Errorf("error creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("error making request: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			audio, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("error reading audio response: %w", err)
			}
			return audio, nil
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		// Model warming: retry with a fixed delay.
		if resp.StatusCode == http.StatusServiceUnavailable && attempt < s.maxRetries {
			s.logger.Warn("Avatar model warming up, retrying",
				slog.Int("attempt", attempt),
				slog.String("model", s.model),
				slog.Duration("retry_delay", s.retryDelay))
			select {
			case <-time.After(s.retryDelay):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		return nil, &HuggingFaceHttpError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			RawBody:    string(body),
		}
	}

	return nil, fmt.Errorf("failed to call HuggingFace API after %d attempts", s.maxRetries)
}
