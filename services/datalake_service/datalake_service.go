package datalake_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// DataLakeFile describes a stored blob.
type DataLakeFile struct {
	Name         string                 `json:"name"`
	Size         int64                  `json:"size"`
	LastModified string                 `json:"last_modified"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// FileEvent is published whenever a blob is created or deleted.
type FileEvent struct {
	ID        string                 `json:"id"`
	Subject   string                 `json:"subject"`
	EventType string                 `json:"event_type"`
	EventTime time.Time              `json:"event_time"`
	Data      map[string]interface{} `json:"data"`
}

const (
	EventFileCreated = "DataLake.FileCreated"
	EventFileDeleted = "DataLake.FileDeleted"
)

// DataLakeService is a thin blob-storage wrapper used by the data-ingestion
// side. The core chat pipeline never touches it.
type DataLakeService struct {
	fs            afero.Fs
	root          string
	eventEndpoint string
	httpClient    *http.Client
	logger        *slog.Logger
}

func New(fs afero.Fs, root, eventEndpoint string, logger *slog.Logger) *DataLakeService {
	return &DataLakeService{
		fs:            fs,
		root:          root,
		eventEndpoint: eventEndpoint,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        logger,
	}
}

func (s *DataLakeService) blobPath(filePath string) string {
	return path.Join(s.root, filePath)
}

func (s *DataLakeService) metaPath(filePath string) string {
	return s.blobPath(filePath) + ".meta.json"
}

// UploadFile stores content under filePath and publishes a FileCreated event.
func (s *DataLakeService) UploadFile(ctx context.Context, filePath string, content io.Reader, metadata map[string]interface{}) error {
	target := s.blobPath(filePath)
	if err := s.fs.MkdirAll(path.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", filePath, err)
	}

	file, err := s.fs.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	if _, err := io.Copy(file, content); err != nil {
		file.Close()
		return fmt.Errorf("failed to write file %s: %w", filePath, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", filePath, err)
	}

	if metadata != nil {
		meta, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for %s: %w", filePath, err)
		}
		if err := afero.WriteFile(s.fs, s.metaPath(filePath), meta, 0644); err != nil {
			return fmt.Errorf("failed to write metadata for %s: %w", filePath, err)
		}
	}

	s.publishFileEvent(ctx, EventFileCreated, filePath, metadata)
	return nil
}

// ReadFile returns the blob content.
func (s *DataLakeService) ReadFile(ctx context.Context, filePath string) ([]byte, error) {
	content, err := afero.ReadFile(s.fs, s.blobPath(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}
	return content, nil
}

// DeleteFile removes the blob and publishes a FileDeleted event.
func (s *DataLakeService) DeleteFile(ctx context.Context, filePath string) error {
	if err := s.fs.Remove(s.blobPath(filePath)); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", filePath, err)
	}
	if err := s.fs.Remove(s.metaPath(filePath)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to delete metadata sidecar",
			slog.String("path", filePath),
			slog.String("error", err.Error()))
	}

	s.publishFileEvent(ctx, EventFileDeleted, filePath, nil)
	return nil
}

// ListFiles lists blobs under a directory, recursively.
func (s *DataLakeService) ListFiles(ctx context.Context, directory string) ([]DataLakeFile, error) {
	files := make([]DataLakeFile, 0)
	base := s.blobPath(directory)

	err := afero.Walk(s.fs, base, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasSuffix(p, ".meta.json") {
			return nil
		}

		name := strings.TrimPrefix(strings.TrimPrefix(p, s.root), "/")
		file := DataLakeFile{
			Name:         name,
			Size:         info.Size(),
			LastModified: info.ModTime().UTC().Format(time.RFC3339),
		}
		if metadata, err := s.GetFileMetadata(ctx, name); err == nil {
			file.Metadata = metadata
		}
		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files under %s: %w", directory, err)
	}

	return files, nil
}

// GetFileMetadata returns the metadata stored alongside a blob, or nil when
// none was recorded.
func (s *DataLakeService) GetFileMetadata(ctx context.Context, filePath string) (map[string]interface{}, error) {
	raw, err := afero.ReadFile(s.fs, s.metaPath(filePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read metadata for %s: %w", filePath, err)
	}

	var metadata map[string]interface{}
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata for %s: %w", filePath, err)
	}
	return metadata, nil
}

// publishFileEvent posts a typed event to the configured endpoint. Event
// delivery is best effort: failures are logged, never surfaced.
func (s *DataLakeService) publishFileEvent(ctx context.Context, eventType, filePath string, metadata map[string]interface{}) {
	if s.eventEndpoint == "" {
		return
	}

	event := FileEvent{
		ID:        uuid.NewString(),
		Subject:   fmt.Sprintf("/datalake/%s/%s", s.root, filePath),
		EventType: eventType,
		EventTime: time.Now().UTC(),
		Data: map[string]interface{}{
			"api":      "DataLake",
			"path":     filePath,
			"metadata": metadata,
		},
	}

	payload, err := json.Marshal([]FileEvent{event})
	if err != nil {
		s.logger.Error("Failed to marshal file event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.eventEndpoint, bytes.NewBuffer(payload))
	if err != nil {
		s.logger.Error("Failed to create event request",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("Failed to publish file event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("Event endpoint returned non-200 status",
			slog.String("event_type", eventType),
			slog.Int("status", resp.StatusCode))
	}
}
