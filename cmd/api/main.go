package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"receipt-analyzer/config"
	httpHandler "receipt-analyzer/internal/adapter/http/handler"
	"receipt-analyzer/internal/adapter/ocr"
	pgStorage "receipt-analyzer/internal/adapter/storage/postgres"
	redisStorage "receipt-analyzer/internal/adapter/storage/redis"
	"receipt-analyzer/internal/core/ports"
	"receipt-analyzer/internal/service"
	"receipt-analyzer/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Receipt Analyzer")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories and Redis stores
	var analysisRepo ports.AnalysisRepository
	if cfg.Analysis.HistoryEnabled {
		analysisRepo = pgStorage.NewAnalysisRepo(pool)
	}
	analysisCache := redisStorage.NewAnalysisCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize OCR adapter
	var ocrSvc ports.OcrService
	switch cfg.Ocr.Provider {
	case "http":
		ocrSvc = ocr.NewHTTPService(cfg.Ocr.Endpoint, cfg.Ocr.Timeout)
		log.Info().Str("endpoint", cfg.Ocr.Endpoint).Msg("Using HTTP OCR provider")
	default:
		ocrSvc = ocr.NewStubService()
		log.Warn().Msg("Using stub OCR provider; all images yield the sample receipt")
	}

	// Initialize core services
	parser := service.NewReceiptParser()
	totals := service.NewTotalsCalculator()
	analyzeSvc := service.NewAnalyzeService(
		ocrSvc,
		parser,
		totals,
		analysisCache,
		analysisRepo,
		cfg.Analysis.DefaultCurrency,
		cfg.Analysis.CacheTTL,
		log,
	)

	var historySvc ports.HistoryService
	if analysisRepo != nil {
		historySvc = service.NewHistoryService(analysisRepo)
	}

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AnalyzeSvc:     analyzeSvc,
		HistorySvc:     historySvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
