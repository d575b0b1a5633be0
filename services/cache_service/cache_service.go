package cache_service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jarbasai/jarbas/chat_type"
)

// RedisClient is the minimal command surface the cache needs, so tests can
// swap in a miniredis-backed client.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetEx(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// CacheService stores answer envelopes keyed by normalized question. Caching
// is a performance optimization only: every failure path here is non-fatal.
type CacheService struct {
	client RedisClient
	ttl    time.Duration
	logger *slog.Logger
}

func New(client RedisClient, ttl time.Duration, logger *slog.Logger) *CacheService {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &CacheService{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// GenerateCacheKey derives a deterministic key from the question and optional
// user. Identical (question, user) pairs after normalization always map to
// the same key; the normalized string itself is the key, so distinct
// questions cannot collide.
func (s *CacheService) GenerateCacheKey(question string, userID string) string {
	baseKey := strings.ToLower(strings.TrimSpace(question))
	if userID != "" {
		return fmt.Sprintf("chat:%s:%s", userID, baseKey)
	}
	return fmt.Sprintf("chat:%s", baseKey)
}

// GetCachedResponse returns the stored envelope, or nil when absent. Transport
// and deserialization failures are treated as absence.
func (s *CacheService) GetCachedResponse(ctx context.Context, key string) *chat_type.VectorChatResponse {
	cached, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("Failed to read from cache",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return nil
	}

	var response chat_type.VectorChatResponse
	if err := json.Unmarshal([]byte(cached), &response); err != nil {
		s.logger.Warn("Failed to decode cached response",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil
	}
	return &response
}

// SetCachedResponse serializes and stores the envelope with the configured
// expiry. Returns false on failure; callers never treat that as an error.
func (s *CacheService) SetCachedResponse(ctx context.Context, key string, response *chat_type.VectorChatResponse) bool {
	payload, err := json.Marshal(response)
	if err != nil {
		s.logger.Warn("Failed to encode response for cache",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return false
	}

	if err := s.client.SetEx(ctx, key, payload, s.ttl).Err(); err != nil {
		s.logger.Warn("Failed to write to cache",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return false
	}
	return true
}
