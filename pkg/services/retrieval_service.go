package services

import (
	"context"
	"fmt"

	"epilog-api/pkg/models"
	"epilog-api/pkg/observability"
	"epilog-api/pkg/voyage"

	"go.uber.org/zap"
)

// Embedder turns texts into vectors. Implemented by the Voyage client; tests
// substitute fakes.
type Embedder interface {
	Embed(ctx context.Context, texts []string, inputType string) ([][]float32, error)
}

// GuidelineSearcher is the read side of the guideline vector store.
type GuidelineSearcher interface {
	SearchGuidelines(ctx context.Context, vector []float32, topK uint64) ([]models.GuidelineSnippet, error)
}

const retrievalTopK = uint64(3)

// RetrievalService embeds a deterministic query built from the reading and
// the profile and searches the guideline collection. Retrieval is a soft
// dependency: every failure degrades to an empty snippet set so the pipeline
// can still answer without citations.
type RetrievalService struct {
	embedder Embedder
	store    GuidelineSearcher
	topK     uint64
	logger   *zap.Logger
}

// NewRetrievalService creates a RetrievalService with the fixed top-k.
func NewRetrievalService(embedder Embedder, store GuidelineSearcher, logger *zap.Logger) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		store:    store,
		topK:     retrievalTopK,
		logger:   logger,
	}
}

// BuildQuery constructs the primary search query. It is a pure function of
// the reading's grades and the profile, so identical categorical inputs
// always search for the same thing.
func BuildQuery(reading models.PollutantReading, profile models.UserProfile) string {
	pollutant, grade := MainIssue(reading)
	mainCondition := "보통"
	if grade >= models.GradeUnhealthySensitive {
		mainCondition = fmt.Sprintf("%s %s", models.PollutantKoreanName(pollutant), grade.KoreanLabel())
	}
	return fmt.Sprintf("%s 상황에서 %s %s 행동 요령 주의사항", mainCondition, profile.Condition, profile.AgeGroup)
}

// buildFallbackQuery drops the profile so a sparse guideline collection can
// still match on the air-quality situation alone.
func buildFallbackQuery(reading models.PollutantReading) string {
	pollutant, grade := MainIssue(reading)
	mainCondition := "보통"
	if grade >= models.GradeUnhealthySensitive {
		mainCondition = fmt.Sprintf("%s %s", models.PollutantKoreanName(pollutant), grade.KoreanLabel())
	}
	return fmt.Sprintf("%s 행동 요령", mainCondition)
}

// Retrieve returns the top-k guideline snippets for the request, or an empty
// set when embedding or search fails. It never returns an error.
func (s *RetrievalService) Retrieve(ctx context.Context, reading models.PollutantReading, profile models.UserProfile) []models.GuidelineSnippet {
	query := BuildQuery(reading, profile)

	snippets, err := s.search(ctx, query)
	if err != nil {
		s.logger.Warn("guideline retrieval failed, continuing without citations",
			zap.String("query", query), zap.Error(err))
		observability.RetrievalFallbacksTotal.Inc()
		return nil
	}
	if len(snippets) > 0 {
		return snippets
	}

	// Primary query matched nothing; retry with the general query.
	fallbackQuery := buildFallbackQuery(reading)
	snippets, err = s.search(ctx, fallbackQuery)
	if err != nil {
		s.logger.Warn("fallback guideline retrieval failed, continuing without citations",
			zap.String("query", fallbackQuery), zap.Error(err))
		observability.RetrievalFallbacksTotal.Inc()
		return nil
	}
	return snippets
}

func (s *RetrievalService) search(ctx context.Context, query string) ([]models.GuidelineSnippet, error) {
	vectors, err := s.embedder.Embed(ctx, []string{query}, voyage.InputTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("query embedding returned no vector")
	}
	return s.store.SearchGuidelines(ctx, vectors[0], s.topK)
}
