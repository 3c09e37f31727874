package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"epilog-api/pkg/models"
	"epilog-api/pkg/observability"
	"epilog-api/pkg/voyage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GuidelineWriter is the write side of the guideline vector store.
type GuidelineWriter interface {
	UpsertGuideline(ctx context.Context, doc models.GuidelineDocument) error
}

const (
	// Pages shorter than this (after trimming) carry no usable guidance,
	// typically cover pages or figures, and produce no document row.
	minPageChars = 50

	ingestBatchSize   = 8
	embedMaxRetries   = 5
	embedInitialDelay = 2 * time.Second
)

// IngestService turns pre-extracted document pages into embedded guideline
// rows. Unlike the advice path, ingestion retries: the embedding provider
// rate-limits aggressively and a batch job can afford to wait.
type IngestService struct {
	embedder Embedder
	store    GuidelineWriter
	logger   *zap.Logger
	now      func() time.Time
	sleep    func(time.Duration)
}

// NewIngestService creates an IngestService.
func NewIngestService(embedder Embedder, store GuidelineWriter, logger *zap.Logger) *IngestService {
	return &IngestService{
		embedder: embedder,
		store:    store,
		logger:   logger,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// IngestPages embeds and stores every page of source that clears the minimum
// length threshold, preserving original page numbers. It returns the number
// of document rows written.
func (s *IngestService) IngestPages(ctx context.Context, source string, pages []string) (int, error) {
	var texts []string
	var pageNumbers []int
	for i, page := range pages {
		if len(strings.TrimSpace(page)) > minPageChars {
			texts = append(texts, page)
			pageNumbers = append(pageNumbers, i+1)
		}
	}
	if len(texts) == 0 {
		return 0, fmt.Errorf("no extractable text found in %q", source)
	}

	s.logger.Info("ingesting guideline pages",
		zap.String("source", source), zap.Int("pages", len(texts)))

	inserted := 0
	for start := 0; start < len(texts); start += ingestBatchSize {
		end := start + ingestBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := s.embedWithRetry(ctx, texts[start:end])
		if err != nil {
			return inserted, fmt.Errorf("embedding pages %d-%d of %q: %w",
				pageNumbers[start], pageNumbers[end-1], source, err)
		}

		for i, vector := range vectors {
			doc := models.GuidelineDocument{
				ID:        uuid.New().String(),
				Text:      texts[start+i],
				Embedding: vector,
				Source:    source,
				Page:      pageNumbers[start+i],
				Category:  "pdf_upload",
				RiskLevel: "unknown",
				CreatedAt: s.now(),
			}
			if err := s.store.UpsertGuideline(ctx, doc); err != nil {
				return inserted, fmt.Errorf("storing page %d of %q: %w", doc.Page, source, err)
			}
			inserted++
			observability.GuidelinePagesIngestedTotal.Inc()
		}
	}

	s.logger.Info("guideline ingestion complete",
		zap.String("source", source), zap.Int("inserted", inserted))
	return inserted, nil
}

// embedWithRetry backs off exponentially on rate-limit responses. Hard
// errors propagate immediately.
func (s *IngestService) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	delay := embedInitialDelay
	var lastErr error
	for attempt := 0; attempt < embedMaxRetries; attempt++ {
		vectors, err := s.embedder.Embed(ctx, texts, voyage.InputTypeDocument)
		if err == nil {
			return vectors, nil
		}
		if !voyage.IsRateLimited(err) {
			return nil, err
		}
		lastErr = err
		s.logger.Warn("embedding rate limited, backing off",
			zap.Duration("delay", delay), zap.Int("attempt", attempt+1))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		s.sleep(delay)
		delay *= 2
	}
	return nil, fmt.Errorf("embedding retries exhausted: %w", lastErr)
}
