package cache_service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarbasai/jarbas/chat_type"
)

func newTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(client, time.Hour, logger), mr
}

func TestGenerateCacheKey(t *testing.T) {
	svc, _ := newTestCache(t)

	tests := []struct {
		name     string
		question string
		userID   string
		expected string
	}{
		{
			name:     "Question without user",
			question: "Qual é a capital da França?",
			expected: "chat:qual é a capital da frança?",
		},
		{
			name:     "Question with user",
			question: "Qual é a capital da França?",
			userID:   "user42",
			expected: "chat:user42:qual é a capital da frança?",
		},
		{
			name:     "Normalization trims and lowercases",
			question: "  O Que É RAG?  ",
			expected: "chat:o que é rag?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, svc.GenerateCacheKey(tt.question, tt.userID))
		})
	}
}

func TestGenerateCacheKeyDeterministic(t *testing.T) {
	svc, _ := newTestCache(t)

	first := svc.GenerateCacheKey("What is Go?", "u1")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, svc.GenerateCacheKey("  WHAT IS GO?  ", "u1"))
	}
	assert.NotEqual(t, first, svc.GenerateCacheKey("What is Go?", "u2"))
	assert.NotEqual(t, first, svc.GenerateCacheKey("What is Rust?", "u1"))
}

func TestCacheRoundTrip(t *testing.T) {
	svc, _ := newTestCache(t)
	ctx := context.Background()

	envelope := &chat_type.VectorChatResponse{
		ChatResponse: chat_type.ChatResponse{
			Question:     "Qual é a capital da França?",
			TextResponse: chat_type.LLMResponse{Text: "A capital da França é Paris.", Confidence: 0.95},
			Timestamp:    time.Now().UTC(),
		},
		Context: []string{"[Source: geografia.pdf]\nParis é a capital."},
		Sources: []string{"geografia.pdf"},
	}

	key := svc.GenerateCacheKey(envelope.Question, "")
	require.True(t, svc.SetCachedResponse(ctx, key, envelope))

	got := svc.GetCachedResponse(ctx, key)
	require.NotNil(t, got)
	assert.Equal(t, envelope.TextResponse.Text, got.TextResponse.Text)
	assert.Equal(t, envelope.Sources, got.Sources)
}

func TestCacheMissReturnsNil(t *testing.T) {
	svc, _ := newTestCache(t)
	assert.Nil(t, svc.GetCachedResponse(context.Background(), "chat:absent"))
}

func TestCacheExpiry(t *testing.T) {
	svc, mr := newTestCache(t)
	ctx := context.Background()

	envelope := &chat_type.VectorChatResponse{
		ChatResponse: chat_type.ChatResponse{Question: "expira?"},
	}
	key := svc.GenerateCacheKey(envelope.Question, "")
	require.True(t, svc.SetCachedResponse(ctx, key, envelope))

	mr.FastForward(2 * time.Hour)
	assert.Nil(t, svc.GetCachedResponse(ctx, key))
}

func TestCorruptedEntryTreatedAsMiss(t *testing.T) {
	svc, mr := newTestCache(t)
	require.NoError(t, mr.Set("chat:broken", "{not json"))
	assert.Nil(t, svc.GetCachedResponse(context.Background(), "chat:broken"))
}

func TestTransportFailureIsNonFatal(t *testing.T) {
	svc, mr := newTestCache(t)
	ctx := context.Background()
	mr.Close()

	envelope := &chat_type.VectorChatResponse{
		ChatResponse: chat_type.ChatResponse{Question: "redis caiu"},
	}
	assert.False(t, svc.SetCachedResponse(ctx, "chat:down", envelope))
	assert.Nil(t, svc.GetCachedResponse(ctx, "chat:down"))
}
