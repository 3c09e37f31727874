package services

import (
	"context"
	"time"

	"epilog-api/pkg/models"
	"epilog-api/pkg/observability"

	"go.uber.org/zap"
)

// AirQualityLookup resolves a station-day to a reading. It cannot fail: a
// miss yields the mock reading.
type AirQualityLookup interface {
	GetReading(ctx context.Context, stationName, date string) models.PollutantReading
}

// Retriever fetches guideline snippets and degrades to an empty set on
// failure.
type Retriever interface {
	Retrieve(ctx context.Context, reading models.PollutantReading, profile models.UserProfile) []models.GuidelineSnippet
}

// Generator produces the structured justification and degrades to a fixed
// template on failure.
type Generator interface {
	Generate(ctx context.Context, gc GenerationContext) GenerationOutput
}

// AdviceService orchestrates one advice request:
//
//	lookup air quality → derive cache key → cache lookup →
//	  hit:  respond with the cached result verbatim
//	  miss: retrieve → decide → generate → cache write → respond
//
// Every dependency past the lookup is isolated behind a fallback, so a
// single upstream outage costs citations or prose, never availability.
type AdviceService struct {
	airQuality AirQualityLookup
	cache      AdviceCache
	retrieval  Retriever
	generation Generator
	logger     *zap.Logger
	now        func() time.Time
}

// NewAdviceService wires the orchestrator.
func NewAdviceService(airQuality AirQualityLookup, cache AdviceCache, retrieval Retriever, generation Generator, logger *zap.Logger) *AdviceService {
	return &AdviceService{
		airQuality: airQuality,
		cache:      cache,
		retrieval:  retrieval,
		generation: generation,
		logger:     logger,
		now:        time.Now,
	}
}

// GetAdvice runs the pipeline for today's reading at the station. The
// returned error is reserved for total pipeline failure; degraded upstreams
// still produce a result.
func (s *AdviceService) GetAdvice(ctx context.Context, stationName string, profile models.UserProfile) (models.AdviceResult, error) {
	observability.AdviceRequestsTotal.Inc()
	date := s.now().Format("2006-01-02")

	reading := s.airQuality.GetReading(ctx, stationName, date)
	key := DeriveCacheKey(reading, profile)

	cached, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		// A broken cache read is a miss, not a failure.
		s.logger.Warn("cache lookup failed, recomputing", zap.String("key", key), zap.Error(err))
	}
	if hit {
		observability.CacheHitsTotal.Inc()
		s.logger.Info("cache hit", zap.String("key", key))
		return cached, nil
	}
	observability.CacheMissesTotal.Inc()

	snippets := s.retrieval.Retrieve(ctx, reading, profile)

	decision, decisionText, items := Decide(reading, profile)

	output := s.generation.Generate(ctx, GenerationContext{
		Reading:      reading,
		Profile:      profile,
		Decision:     decision,
		DecisionText: decisionText,
		ActionItems:  items,
		Snippets:     snippets,
	})

	result := models.AdviceResult{
		Decision:     decision,
		DecisionText: decisionText,
		ThreeReason:  output.ThreeReason,
		DetailAnswer: output.DetailAnswer,
		ActionItems:  items,
		References:   output.References,
	}

	if err := s.cache.Put(ctx, key, result); err != nil {
		// Fire-and-forget: the response is already computed.
		observability.CacheWriteErrorsTotal.Inc()
		s.logger.Warn("cache write dropped", zap.String("key", key), zap.Error(err))
	} else {
		s.logger.Info("cached advice result", zap.String("key", key),
			zap.String("source", reading.Source))
	}

	return result, nil
}
