package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"epilog-api/pkg/models"

	qdrant "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const (
	guidelinesCollection = "medical_guidelines"
	// voyage-3-large embedding dimension.
	embeddingDim = uint64(1024)
)

// VectorStoreService manages the guideline document collection in Qdrant.
// It only moves vectors and payloads; embedding happens in the callers.
type VectorStoreService struct {
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
	logger      *zap.Logger
}

// NewVectorStoreService connects to Qdrant and makes sure the guideline
// collection exists. An API key switches the connection to TLS with api-key
// metadata (Qdrant Cloud); without one it dials insecurely (local).
func NewVectorStoreService(qdrantURL, qdrantAPIKey string, logger *zap.Logger) (*VectorStoreService, error) {
	var dialOpts []grpc.DialOption

	if qdrantAPIKey != "" {
		creds := credentials.NewTLS(&tls.Config{})
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(creds))

		authInterceptor := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			ctx = metadata.AppendToOutgoingContext(ctx, "api-key", qdrantAPIKey)
			return invoker(ctx, method, req, reply, cc, opts...)
		}
		dialOpts = append(dialOpts, grpc.WithUnaryInterceptor(authInterceptor))
	} else {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(qdrantURL, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant gRPC client: %w", err)
	}

	s := &VectorStoreService{
		points:      qdrant.NewPointsClient(conn),
		collections: qdrant.NewCollectionsClient(conn),
		logger:      logger,
	}

	// Wait for the server: fresh deployments race the Qdrant container.
	maxRetries := 10
	retryInterval := 2 * time.Second
	var collectionExists bool
	var listErr error

	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		res, err := s.collections.List(ctx, &qdrant.ListCollectionsRequest{})
		cancel()
		listErr = err
		if err == nil {
			for _, collection := range res.GetCollections() {
				if collection.GetName() == guidelinesCollection {
					collectionExists = true
					break
				}
			}
			break
		}
		logger.Warn("Qdrant not ready, retrying",
			zap.Int("attempt", i+1), zap.Int("maxRetries", maxRetries), zap.Error(err))
		time.Sleep(retryInterval)
	}
	if listErr != nil {
		return nil, fmt.Errorf("failed to list Qdrant collections after retries: %w", listErr)
	}

	if !collectionExists {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err = s.collections.Create(ctx, &qdrant.CreateCollection{
			CollectionName: guidelinesCollection,
			VectorsConfig: &qdrant.VectorsConfig{
				Config: &qdrant.VectorsConfig_Params{
					Params: &qdrant.VectorParams{
						Size:     embeddingDim,
						Distance: qdrant.Distance_Cosine,
					},
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Qdrant collection %q: %w", guidelinesCollection, err)
		}
		logger.Info("created Qdrant collection", zap.String("collection", guidelinesCollection))
	}

	return s, nil
}

// UpsertGuideline stores one embedded guideline document. Re-ingesting the
// same ID replaces the point.
func (s *VectorStoreService) UpsertGuideline(ctx context.Context, doc models.GuidelineDocument) error {
	payload := map[string]*qdrant.Value{
		"text":       {Kind: &qdrant.Value_StringValue{StringValue: doc.Text}},
		"source":     {Kind: &qdrant.Value_StringValue{StringValue: doc.Source}},
		"page":       {Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(doc.Page)}},
		"category":   {Kind: &qdrant.Value_StringValue{StringValue: doc.Category}},
		"risk_level": {Kind: &qdrant.Value_StringValue{StringValue: doc.RiskLevel}},
		"created_at": {Kind: &qdrant.Value_StringValue{StringValue: doc.CreatedAt.Format(time.RFC3339)}},
	}

	points := []*qdrant.PointStruct{
		{
			Id: &qdrant.PointId{
				PointIdOptions: &qdrant.PointId_Uuid{Uuid: doc.ID},
			},
			Vectors: &qdrant.Vectors{
				VectorsOptions: &qdrant.Vectors_Vector{
					Vector: &qdrant.Vector{
						Data: doc.Embedding,
					},
				},
			},
			Payload: payload,
		},
	}

	waitUpsert := true
	_, err := s.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: guidelinesCollection,
		Points:         points,
		Wait:           &waitUpsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert guideline document: %w", err)
	}
	return nil
}

// SearchGuidelines runs a similarity search against the guideline collection
// and maps the scored points back to snippets.
func (s *VectorStoreService) SearchGuidelines(ctx context.Context, vector []float32, topK uint64) ([]models.GuidelineSnippet, error) {
	withPayload := true
	searchResult, err := s.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: guidelinesCollection,
		Vector:         vector,
		Limit:          topK,
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: withPayload}},
	})
	if err != nil {
		return nil, fmt.Errorf("guideline vector search failed: %w", err)
	}

	results := searchResult.GetResult()
	snippets := make([]models.GuidelineSnippet, 0, len(results))
	for _, point := range results {
		payload := point.GetPayload()
		snippets = append(snippets, models.GuidelineSnippet{
			Text:      stringFromPayload(payload, "text"),
			Source:    stringFromPayload(payload, "source"),
			Page:      intFromPayload(payload, "page"),
			Category:  stringFromPayload(payload, "category"),
			RiskLevel: stringFromPayload(payload, "risk_level"),
			Score:     point.GetScore(),
		})
	}
	return snippets, nil
}

// DeleteByCategory removes every guideline document with the given category
// payload. The batch ingestion script uses this for delete-then-reinsert
// refreshes.
func (s *VectorStoreService) DeleteByCategory(ctx context.Context, category string) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key: "category",
						Match: &qdrant.Match{
							MatchValue: &qdrant.Match_Keyword{Keyword: category},
						},
					},
				},
			},
		},
	}

	waitDelete := true
	_, err := s.points.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: guidelinesCollection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: filter},
		},
		Wait: &waitDelete,
	})
	if err != nil {
		return fmt.Errorf("failed to delete guideline documents by category: %w", err)
	}
	return nil
}

func stringFromPayload(payload map[string]*qdrant.Value, key string) string {
	if val, ok := payload[key]; ok {
		return val.GetStringValue()
	}
	return ""
}

func intFromPayload(payload map[string]*qdrant.Value, key string) int {
	if val, ok := payload[key]; ok {
		return int(val.GetIntegerValue())
	}
	return 0
}
