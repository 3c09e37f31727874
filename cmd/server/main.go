package main

import (
	"log"
	"net/http"
	"strings"

	config "epilog-api/configs"
	"epilog-api/pkg/handlers"
	"epilog-api/pkg/observability"
	"epilog-api/pkg/openai"
	"epilog-api/pkg/services"
	"epilog-api/pkg/voyage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	cfg := config.LoadConfig()

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Readings store. A failed open degrades air-quality lookups to the
	// mock reading instead of blocking startup.
	db := openAirQualityDB(cfg.AirQualityDSN, logger)

	// Collaborator clients: all settings injected here, nothing ambient.
	voyageClient := voyage.NewClient(cfg.VoyageBaseURL, cfg.VoyageAPIKey, cfg.VoyageModel, cfg.VoyageTimeout)
	openaiClient := openai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAITimeout)

	vectorStore, err := services.NewVectorStoreService(cfg.QdrantURL, cfg.QdrantAPIKey, logger)
	if err != nil {
		logger.Fatal("failed to initialize vector store", zap.Error(err))
	}

	var cache services.AdviceCache
	if cfg.RedisAddr != "" {
		redisCache, err := services.NewRedisAdviceCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		cache = redisCache
	} else {
		logger.Warn("REDIS_ADDR not set, using in-process advice cache")
		cache = services.NewMemoryAdviceCache()
	}

	airQualityService := services.NewAirQualityService(db, logger)
	retrievalService := services.NewRetrievalService(voyageClient, vectorStore, logger)
	generationService := services.NewGenerationService(openaiClient, logger)
	ingestService := services.NewIngestService(voyageClient, vectorStore, logger)
	adviceService := services.NewAdviceService(airQualityService, cache, retrievalService, generationService, logger)

	adviceHandler := handlers.NewAdviceHandler(adviceService, logger)
	airQualityHandler := handlers.NewAirQualityHandler(airQualityService)
	ingestHandler := handlers.NewIngestHandler(ingestService, logger)
	proxyHandler := handlers.NewProxyHandler(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIProxyToken, cfg.OpenAIProxyTimeout, logger)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.MetricsMiddleware())
	r.Use(cors.Default())

	r.GET("/health", handlers.HealthCheck)
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	api := r.Group("/api")
	api.Use(authMiddleware(cfg.APIKey))
	{
		api.POST("/advice", adviceHandler.GiveAdvice)
		api.GET("/air-quality", airQualityHandler.GetAirQuality)
		api.POST("/ingest/pages", ingestHandler.IngestPages)

		proxy := api.Group("/openai/v1")
		{
			proxy.GET("/health", proxyHandler.Health)
			proxy.POST("/responses", proxyHandler.Relay)
		}
	}

	logger.Info("starting Epilog Advice API", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

// openAirQualityDB opens the readings store. A postgres:// DSN selects the
// postgres driver, everything else is treated as a sqlite path.
func openAirQualityDB(dsn string, logger *zap.Logger) *gorm.DB {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		logger.Warn("failed to open air quality store, lookups will use mock readings", zap.Error(err))
		return nil
	}
	if err := db.AutoMigrate(&services.DailyAirQuality{}); err != nil {
		logger.Warn("failed to migrate air quality store", zap.Error(err))
	}
	return db
}

// authMiddleware enforces the optional X-API-KEY header. An empty configured
// key disables the check.
func authMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-KEY") != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
