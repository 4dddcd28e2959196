package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wakanda-gov/config"
	"wakanda-gov/models"
	"wakanda-gov/providers/openrouter"
	"wakanda-gov/services"
	"wakanda-gov/storage"
)

var (
	documentViewsCounter  prometheus.Counter
	searchQueriesCounter  prometheus.Counter
	aiTokensUsedCounter   prometheus.Counter
	citationsAddedCounter prometheus.Counter
)

func init() {
	documentViewsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "policy_document_views_total",
			Help: "Total number of policy document reads.",
		},
	)
	searchQueriesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "policy_search_queries_total",
			Help: "Total number of policy search queries.",
		},
	)
	aiTokensUsedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_tokens_used_total",
			Help: "Total number of tokens consumed by the AI provider.",
		},
	)
	citationsAddedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "policy_citations_added_total",
			Help: "Total number of citation edges recorded.",
		},
	)
	prometheus.MustRegister(documentViewsCounter, searchQueriesCounter,
		aiTokensUsedCounter, citationsAddedCounter)
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}
	if cfg.JWTSecret == "" {
		logging.Warn("JWT_SECRET is empty: authentication is disabled and every request gets an admin principal. Never run a reachable deployment like this.")
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to platform database.")

	// Auto-Migration
	logging.Info("Running database auto-migration...")
	db.AutoMigrate(
		&models.PolicyDocument{},
		&models.PolicyAmendment{},
		&models.PolicyComment{},
		&models.PolicyCitation{},
		&models.PolicyAnalytics{},
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.AIAnalysis{},
	)

	// Setup Services
	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}
	orClient := openrouter.NewClient(cfg, logging)
	analyticsService := services.NewAnalyticsService(db, logging)
	searchService := services.NewSearchService(db, analyticsService, logging)
	citationService := services.NewCitationService(db, analyticsService, logging)
	chatService := services.NewChatService(cfg, db, orClient, logging)

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(jwtAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Wakanda Digital Government Platform API",
			"version": "1.0.0",
			"docs":    "/api/v1",
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().UTC()})
	})

	// Setup Routes
	setupPolicyRoutes(router, db, searchService, analyticsService, citationService, s3Client, cfg, logging)
	setupAIRoutes(router, db, chatService, orClient, logging)

	// Setup Cron - nightly corpus summary for the ops log
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled corpus summary job...")
		var docs, views int64
		if err := db.Model(&models.PolicyDocument{}).Count(&docs).Error; err != nil {
			logging.Error("Corpus summary job failed", zap.Error(err))
			return
		}
		db.Model(&models.PolicyDocument{}).Select("COALESCE(SUM(view_count), 0)").Scan(&views)
		logging.Info("Corpus summary job completed",
			zap.Int64("documents", docs), zap.Int64("total_views", views))
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}
