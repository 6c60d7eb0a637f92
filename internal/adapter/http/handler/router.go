package handler

import (
	"receipt-analyzer/internal/adapter/http/middleware"
	redisStore "receipt-analyzer/internal/adapter/storage/redis"
	"receipt-analyzer/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AnalyzeSvc     ports.AnalyzeService
	HistorySvc     ports.HistoryService            // nil = history endpoints disabled
	RateLimitStore *redisStore.RateLimitStore      // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(10 << 20)) // 10 MB: base64 receipt images

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	receiptHandler := NewReceiptHandler(deps.AnalyzeSvc)
	receipts := v1.Group("/receipts")
	{
		receipts.POST("/analyze", rl("analyze"), receiptHandler.Analyze)
		receipts.POST("/analyze-text", rl("analyze_text"), receiptHandler.AnalyzeText)
	}

	if deps.HistorySvc != nil {
		historyHandler := NewHistoryHandler(deps.HistorySvc)
		analyses := v1.Group("/analyses")
		{
			analyses.GET("", rl("history"), historyHandler.ListAnalyses)
			analyses.GET("/:id", rl("history"), historyHandler.GetAnalysis)
		}
	}

	return r
}
