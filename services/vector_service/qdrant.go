package vector_service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"

	"github.com/jarbasai/jarbas/chat_type"
)

// QdrantService implements similarity search over a Qdrant collection via gRPC.
type QdrantService struct {
	points         qdrant.PointsClient
	collectionName string
	logger         *slog.Logger
}

func NewQdrantService(addr, collectionName string, embeddingDim int, logger *slog.Logger) (*QdrantService, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("could not connect to Qdrant: %w", err)
	}

	s := &QdrantService{
		points:         qdrant.NewPointsClient(conn),
		collectionName: collectionName,
		logger:         logger,
	}

	collections := qdrant.NewCollectionsClient(conn)
	if err := s.ensureCollectionExists(context.Background(), collections, embeddingDim); err != nil {
		return nil, fmt.Errorf("failed to ensure collection exists: %w", err)
	}

	return s, nil
}

func (s *QdrantService) ensureCollectionExists(ctx context.Context, collections qdrant.CollectionsClient, embeddingDim int) error {
	_, err := collections.Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: s.collectionName,
	})
	if err == nil {
		return nil
	}

	s.logger.Info("Creating Qdrant collection",
		slog.String("collection", s.collectionName),
		slog.Int("dimension", embeddingDim))

	_, err = collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: s.collectionName,
		VectorsConfig: &qdrant.VectorsConfig{Config: &qdrant.VectorsConfig_Params{
			Params: &qdrant.VectorParams{
				Size:     uint64(embeddingDim),
				Distance: qdrant.Distance_Cosine,
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (s *QdrantService) SearchSimilar(ctx context.Context, embedding []float32, topK int) ([]chat_type.SearchResult, error) {
	searchResult, err := s.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: s.collectionName,
		Vector:         embedding,
		Limit:          uint64(topK),
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search points in Qdrant: %w", err)
	}

	results := make([]chat_type.SearchResult, 0, len(searchResult.GetResult()))
	for _, hit := range searchResult.GetResult() {
		payload := hit.GetPayload()
		if payload == nil {
			continue
		}

		result := chat_type.SearchResult{
			Content:    payload["content"].GetStringValue(),
			Metadata:   payloadToMap(payload),
			Similarity: float64(hit.GetScore()),
		}
		if id := hit.GetId(); id != nil {
			if uuidVal, ok := id.GetPointIdOptions().(*qdrant.PointId_Uuid); ok {
				result.ID = uuidVal.Uuid
			}
		}

		results = append(results, result)
	}

	return results, nil
}

func (s *QdrantService) UpsertDocuments(ctx context.Context, docs []Document) error {
	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, doc := range docs {
		if doc.Embedding == nil {
			continue
		}

		pointID := doc.ID
		if pointID == "" {
			pointID = uuid.NewString()
		}

		payloadMap := map[string]interface{}{"content": doc.Content}
		for k, v := range doc.Metadata {
			payloadMap[k] = v
		}

		payload, err := mapToPayload(payloadMap)
		if err != nil {
			return fmt.Errorf("failed to convert payload for document %s: %w", pointID, err)
		}

		points = append(points, &qdrant.PointStruct{
			Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: pointID}},
			Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: doc.Embedding}}},
			Payload: payload,
		})
	}

	if len(points) == 0 {
		return nil
	}

	_, err := s.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Points:         points,
		Wait:           proto.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points to Qdrant: %w", err)
	}
	return nil
}

func (s *QdrantService) DeleteDocuments(ctx context.Context, ids []string) error {
	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: id}})
	}

	_, err := s.points.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: pointIDs},
			},
		},
		Wait: proto.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to delete points from Qdrant: %w", err)
	}
	return nil
}

// payloadToMap keeps the raw metadata alongside the extracted content so
// attribution keys like "source" survive the round trip.
func payloadToMap(payload map[string]*qdrant.Value) map[string]interface{} {
	metadata := make(map[string]interface{}, len(payload))
	for key, val := range payload {
		if key == "content" {
			continue
		}
		switch kind := val.GetKind().(type) {
		case *qdrant.Value_StringValue:
			metadata[key] = kind.StringValue
		case *qdrant.Value_IntegerValue:
			metadata[key] = kind.IntegerValue
		case *qdrant.Value_DoubleValue:
			metadata[key] = kind.DoubleValue
		case *qdrant.Value_BoolValue:
			metadata[key] = kind.BoolValue
		}
	}
	return metadata
}

func mapToPayload(data map[string]interface{}) (map[string]*qdrant.Value, error) {
	payload := make(map[string]*qdrant.Value, len(data))
	for key, val := range data {
		switch v := val.(type) {
		case string:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
		case int:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(v)}}
		case int64:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: v}}
		case float64:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: v}}
		case bool:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: v}}
		default:
			return nil, fmt.Errorf("unsupported type for payload field '%s': %T", key, v)
		}
	}
	return payload, nil
}
