//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	config "epilog-api/configs"
	"epilog-api/pkg/models"
	"epilog-api/pkg/services"
	"epilog-api/pkg/voyage"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// guidelineRecord mirrors one entry of the guidelines JSON export.
type guidelineRecord struct {
	Text      string `json:"text"`
	Source    string `json:"source"`
	Page      int    `json:"page"`
	Category  string `json:"category"`
	RiskLevel string `json:"risk_level"`
}

const embedBatchSize = 8

func main() {
	inputPath := flag.String("input", "data/guidelines.json", "path to the guidelines JSON file")
	replaceCat := flag.String("replace-category", "", "delete existing documents in this category before ingesting")
	flag.Parse()

	log.Println("Starting guideline ingestion...")

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.LoadConfig()
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	embedder := voyage.NewClient(cfg.VoyageBaseURL, cfg.VoyageAPIKey, cfg.VoyageModel, cfg.VoyageTimeout)

	store, err := services.NewVectorStoreService(cfg.QdrantURL, cfg.QdrantAPIKey, logger)
	if err != nil {
		log.Fatalf("Failed to initialize vector store: %v", err)
	}

	raw, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *inputPath, err)
	}

	var records []guidelineRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		log.Fatalf("Failed to parse %s: %v", *inputPath, err)
	}
	log.Printf("Loaded %d guideline records from %s", len(records), *inputPath)

	ctx := context.Background()

	if *replaceCat != "" {
		log.Printf("Deleting existing documents in category %q...", *replaceCat)
		if err := store.DeleteByCategory(ctx, *replaceCat); err != nil {
			// Proceed anyway, the collection may simply be empty.
			log.Printf("Warning: delete by category failed: %v", err)
		}
	}

	successCount := 0
	failCount := 0

	for start := 0; start < len(records); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		texts := make([]string, len(batch))
		for i, rec := range batch {
			texts[i] = rec.Text
		}

		vectors, err := embedBatch(ctx, embedder, texts)
		if err != nil {
			log.Printf("Failed to embed batch starting at %d: %v", start, err)
			failCount += len(batch)
			continue
		}

		for i, rec := range batch {
			doc := models.GuidelineDocument{
				ID:        uuid.NewString(),
				Text:      rec.Text,
				Embedding: vectors[i],
				Source:    rec.Source,
				Page:      rec.Page,
				Category:  rec.Category,
				RiskLevel: rec.RiskLevel,
				CreatedAt: time.Now().UTC(),
			}
			if err := store.UpsertGuideline(ctx, doc); err != nil {
				log.Printf("Failed to upsert record %d (%s p.%d): %v", start+i, rec.Source, rec.Page, err)
				failCount++
				continue
			}
			successCount++
		}
		log.Printf("Progress: %d/%d", start+len(batch), len(records))
	}

	log.Printf("Ingestion complete: %d succeeded, %d failed", successCount, failCount)
	if failCount > 0 {
		os.Exit(1)
	}
}

// embedBatch retries rate-limited embedding calls with exponential backoff.
func embedBatch(ctx context.Context, embedder *voyage.Client, texts []string) ([][]float32, error) {
	delay := 2 * time.Second
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		vectors, err := embedder.Embed(ctx, texts, voyage.InputTypeDocument)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if !voyage.IsRateLimited(err) {
			return nil, err
		}
		log.Printf("Rate limited, retrying in %s...", delay)
		time.Sleep(delay)
		delay *= 2
	}
	return nil, lastErr
}
