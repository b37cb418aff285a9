package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/JonnyWalker81/restock/backend/internal/logger"
	"github.com/JonnyWalker81/restock/backend/internal/metrics"
	"github.com/JonnyWalker81/restock/backend/internal/middleware"
	"github.com/JonnyWalker81/restock/backend/internal/service"
)

// RouterConfig carries everything the HTTP API needs.
type RouterConfig struct {
	Env            string
	Production     bool
	AllowedOrigins []string
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *middleware.RateLimiter

	Logger  logger.Logger
	Metrics *metrics.Recorder
	Ping    PingFunc

	Purchases   service.PurchaseService
	Predictions service.PredictionService
	Analytics   service.AnalyticsService
}

// NewRouter builds the gin engine with middleware and every API route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	purchaseHandler := NewPurchaseHandler(cfg.Purchases)
	predictionHandler := NewPredictionHandler(cfg.Predictions)
	productHandler := NewProductHandler(cfg.Predictions, cfg.Analytics)
	healthHandler := NewHealthHandler(cfg.Env, cfg.Ping)

	router := gin.New()
	router.Use(gin.Recovery())

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Metrics(cfg.Metrics))
	router.Use(middleware.SecurityHeaders(cfg.Production))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	if cfg.RateLimiter != nil {
		v1.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	{
		users := v1.Group("/users/:user_id")

		users.POST("/purchases", purchaseHandler.CreatePurchase)
		users.DELETE("", purchaseHandler.DeleteUser)

		// Product routes
		users.GET("/products", productHandler.ListProducts)
		users.GET("/products/:product", productHandler.GetProduct)
		users.GET("/products/:product/purchases", purchaseHandler.ListPurchases)
		users.POST("/products/:product/recompute", productHandler.RecomputeProduct)

		// Prediction routes
		users.GET("/predictions", predictionHandler.GetPredictions)
		users.GET("/predictions/summary", predictionHandler.GetSummary)
	}

	return router
}
