package avatar_service

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Artifact is a synthesized audio asset tracked by the store.
type Artifact struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	URL       string `json:"url"`
	MimeType  string `json:"mime_type"`
	Size      int64  `json:"size"`
	CreatedAt int64  `json:"created_at"`
}

// ArtifactStore owns the lifetime of generated audio files. Files are removed
// either explicitly via Release or by the periodic cleanup once their TTL
// elapses, instead of piling up until process exit.
type ArtifactStore struct {
	baseDir string
	ttl     time.Duration
	logger  *slog.Logger

	mutex     sync.RWMutex
	artifacts map[string]*Artifact

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
}

func NewArtifactStore(baseDir string, ttl time.Duration, logger *slog.Logger) *ArtifactStore {
	return &ArtifactStore{
		baseDir:   baseDir,
		ttl:       ttl,
		logger:    logger,
		artifacts: make(map[string]*Artifact),
	}
}

// Save writes audio data to disk under a month-partitioned directory and
// registers the artifact for eviction.
func (s *ArtifactStore) Save(data io.Reader, mimeType, extension string) (*Artifact, error) {
	directory := filepath.Join(s.baseDir, "chat", "audio", time.Now().Format("2006-01"))
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	id := uuid.NewString()
	filename := fmt.Sprintf("tts_%s%s", id, extension)
	path := filepath.Join(directory, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, data)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	artifact := &Artifact{
		ID:        id,
		Path:      path,
		URL:       fmt.Sprintf("/storage/chat/audio/%s/%s", time.Now().Format("2006-01"), filename),
		MimeType:  mimeType,
		Size:      written,
		CreatedAt: time.Now().Unix(),
	}

	s.mutex.Lock()
	s.artifacts[id] = artifact
	s.mutex.Unlock()

	return artifact, nil
}

func (s *ArtifactStore) Get(id string) (*Artifact, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	artifact, exists := s.artifacts[id]
	return artifact, exists
}

// Release removes an artifact and its backing file.
func (s *ArtifactStore) Release(id string) {
	s.mutex.Lock()
	artifact, exists := s.artifacts[id]
	if exists {
		delete(s.artifacts, id)
	}
	s.mutex.Unlock()

	if !exists {
		return
	}
	if err := os.Remove(artifact.Path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to remove artifact file",
			slog.String("artifact_id", id),
			slog.String("path", artifact.Path),
			slog.String("error", err.Error()))
	}
}

// StartCleanup launches the periodic eviction of expired artifacts.
func (s *ArtifactStore) StartCleanup(interval time.Duration) {
	s.stopCleanup = make(chan struct{})
	s.cleanupTicker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-s.cleanupTicker.C:
				s.evictExpired()
			case <-s.stopCleanup:
				s.cleanupTicker.Stop()
				return
			}
		}
	}()
}

func (s *ArtifactStore) StopCleanup() {
	if s.stopCleanup != nil {
		close(s.stopCleanup)
	}
}

func (s *ArtifactStore) evictExpired() {
	now := time.Now()
	expired := make([]string, 0)

	s.mutex.RLock()
	for id, artifact := range s.artifacts {
		if now.Sub(time.Unix(artifact.CreatedAt, 0)) > s.ttl {
			expired = append(expired, id)
		}
	}
	s.mutex.RUnlock()

	for _, id := range expired {
		s.Release(id)
		s.logger.Info("Evicted expired audio artifact", slog.String("artifact_id", id))
	}
}
