package vector_service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/jarbasai/jarbas/chat_type"
)

// PgVectorService runs cosine similarity search against a pgvector-backed
// documents table.
type PgVectorService struct {
	db                  *pgxpool.Pool
	similarityThreshold float64
	logger              *slog.Logger
}

func NewPgVectorService(db *pgxpool.Pool, similarityThreshold float64, logger *slog.Logger) *PgVectorService {
	return &PgVectorService{
		db:                  db,
		similarityThreshold: similarityThreshold,
		logger:              logger,
	}
}

func (s *PgVectorService) SearchSimilar(ctx context.Context, embedding []float32, topK int) ([]chat_type.SearchResult, error) {
	query := `
        WITH scored_documents AS (
            SELECT
                d.id,
                d.content,
                d.metadata,
                1 - (d.embedding <=> $1) AS similarity_score
            FROM documents d
        )
        SELECT id, content, metadata, similarity_score
        FROM scored_documents
        WHERE similarity_score >= $2
        ORDER BY similarity_score DESC
        LIMIT $3
    `

	rows, err := s.db.Query(ctx, query, pgvector.NewVector(embedding), s.similarityThreshold, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to execute similarity search: %w", err)
	}
	defer rows.Close()

	results := make([]chat_type.SearchResult, 0, topK)
	for rows.Next() {
		var result chat_type.SearchResult
		var metadata []byte
		if err := rows.Scan(&result.ID, &result.Content, &metadata, &result.Similarity); err != nil {
			s.logger.Error("Failed to scan search row",
				slog.String("error", err.Error()))
			continue
		}

		result.Metadata = make(map[string]interface{})
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &result.Metadata); err != nil {
				s.logger.Error("Failed to parse document metadata",
					slog.String("document_id", result.ID),
					slog.String("error", err.Error()))
			}
		}

		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}

	return results, nil
}

func (s *PgVectorService) UpsertDocuments(ctx context.Context, docs []Document) error {
	for _, doc := range docs {
		metadata, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for document %s: %w", doc.ID, err)
		}

		_, err = s.db.Exec(ctx, `
            INSERT INTO documents (id, content, metadata, embedding)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (id) DO UPDATE
            SET content = EXCLUDED.content,
                metadata = EXCLUDED.metadata,
                embedding = EXCLUDED.embedding
        `, doc.ID, doc.Content, metadata, pgvector.NewVector(doc.Embedding))
		if err != nil {
			return fmt.Errorf("failed to upsert document %s: %w", doc.ID, err)
		}
	}
	return nil
}

func (s *PgVectorService) DeleteDocuments(ctx context.Context, ids []string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM documents WHERE id = ANY($1)", ids)
	if err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}
