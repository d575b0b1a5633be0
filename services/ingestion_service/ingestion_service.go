package ingestion_service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jarbasai/jarbas/services/datalake_service"
	"github.com/jarbasai/jarbas/services/embedding_service"
	"github.com/jarbasai/jarbas/services/vector_service"
)

const (
	// DefaultChunkSize is the target chunk length in characters. Chunks break
	// on paragraph boundaries when possible.
	DefaultChunkSize = 2000
)

// IngestionService turns uploaded documents into indexed, searchable chunks:
// extract text, chunk, embed, upsert into the vector store, and archive the
// raw document in the data lake.
type IngestionService struct {
	extractor  *DocumentExtractor
	embeddings embedding_service.EmbeddingService
	vectorDB   vector_service.VectorService
	datalake   *datalake_service.DataLakeService
	chunkSize  int
	logger     *slog.Logger
}

// New wires the ingestion side. datalake may be nil when raw documents are
// not archived.
func New(extractor *DocumentExtractor, embeddings embedding_service.EmbeddingService,
	vectorDB vector_service.VectorService, datalake *datalake_service.DataLakeService,
	logger *slog.Logger) *IngestionService {
	return &IngestionService{
		extractor:  extractor,
		embeddings: embeddings,
		vectorDB:   vectorDB,
		datalake:   datalake,
		chunkSize:  DefaultChunkSize,
		logger:     logger,
	}
}

// IngestDocument indexes one document and returns the number of chunks
// stored. The file name becomes the "source" attribution on every chunk.
func (s *IngestionService) IngestDocument(ctx context.Context, fileName string, data []byte, metadata map[string]interface{}) (int, error) {
	text, err := s.extractText(fileName, data)
	if err != nil {
		return 0, fmt.Errorf("failed to extract text from %s: %w", fileName, err)
	}

	chunks := SplitIntoChunks(text, s.chunkSize)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document %s produced no indexable chunks", fileName)
	}

	docs := make([]vector_service.Document, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := s.embeddings.EmbedQuery(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d of %s: %w", i, fileName, err)
		}

		chunkMetadata := map[string]interface{}{
			"source":      fileName,
			"chunk_index": i,
		}
		for k, v := range metadata {
			chunkMetadata[k] = v
		}

		docs = append(docs, vector_service.Document{
			ID:        uuid.New().String(),
			Content:   chunk,
			Metadata:  chunkMetadata,
			Embedding: embedding,
		})
	}

	if err := s.vectorDB.UpsertDocuments(ctx, docs); err != nil {
		return 0, fmt.Errorf("failed to index %s: %w", fileName, err)
	}

	if s.datalake != nil {
		archivePath := filepath.Join("documents", fileName)
		if err := s.datalake.UploadFile(ctx, archivePath, bytes.NewReader(data), metadata); err != nil {
			// The chunks are already searchable; archiving is best effort.
			s.logger.Warn("Failed to archive document",
				slog.String("file", fileName),
				slog.String("error", err.Error()))
		}
	}

	s.logger.Info("Ingested document",
		slog.String("file", fileName),
		slog.Int("chunks", len(docs)))
	return len(docs), nil
}

func (s *IngestionService) extractText(fileName string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return s.extractor.ExtractTextFromPDF(data)
	case ".docx":
		return s.extractor.ExtractTextFromWord(data)
	case ".html", ".htm":
		return s.extractor.ExtractTextFromHTML(data)
	case ".txt", ".md":
		return s.extractor.ExtractTextFromPlain(data)
	default:
		return "", fmt.Errorf("unsupported document type: %s", filepath.Ext(fileName))
	}
}

// SplitIntoChunks cuts text into pieces of at most chunkSize characters,
// preferring paragraph boundaries. Paragraphs longer than chunkSize are cut
// mid-text.
func SplitIntoChunks(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var chunks []string
	var current strings.Builder
	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		for len(paragraph) > chunkSize {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			chunks = append(chunks, paragraph[:chunkSize])
			paragraph = paragraph[chunkSize:]
		}

		if current.Len() > 0 && current.Len()+len(paragraph)+2 > chunkSize {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
