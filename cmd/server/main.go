package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fairway-labs/caddie-engine/internal/api/handlers"
	"github.com/fairway-labs/caddie-engine/internal/websocket"
	"github.com/fairway-labs/caddie-engine/pkg/cache"
	"github.com/fairway-labs/caddie-engine/pkg/config"
	"github.com/fairway-labs/caddie-engine/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logger with service context
	structuredLogger := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	logger.WithService("caddie-engine").WithFields(logrus.Fields{
		"environment": cfg.Env,
		"port":        cfg.Port,
	}).Info("Starting caddie engine")

	// Setup Gin mode
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to Redis for result caching
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.WithService("caddie-engine").Fatalf("Failed to parse Redis URL: %v", err)
	}
	opt.DB = cfg.RedisDB
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		// Cache is an optimization, not a dependency; log and keep serving
		logger.WithService("caddie-engine").WithError(err).Warn("Redis unavailable, result caching disabled until it recovers")
	}
	defer redisClient.Close()

	// Initialize cache service for optimization results
	cacheService := cache.NewAimCacheService(redisClient, structuredLogger)

	// Initialize WebSocket hub for progress updates
	wsHub := websocket.NewHub(structuredLogger)
	go wsHub.Run()

	// Initialize router
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// Initialize handlers
	optimizeHandler := handlers.NewOptimizeHandler(
		cacheService,
		wsHub,
		cfg,
		structuredLogger,
	)
	healthHandler := handlers.NewHealthHandler(redisClient, wsHub, structuredLogger)

	// Setup API routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/optimize", optimizeHandler.Optimize)
		apiV1.POST("/optimize/validate", optimizeHandler.Validate)
		apiV1.GET("/strategies", optimizeHandler.ListStrategies)
	}

	// WebSocket endpoint for progress updates
	router.GET("/ws/optimization-progress/:run_id", wsHub.HandleWebSocket)

	// Health check endpoints
	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)
	router.GET("/metrics", healthHandler.GetMetrics)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		logger.WithService("caddie-engine").WithField("port", cfg.Port).Info("Caddie engine started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithService("caddie-engine").Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.WithService("caddie-engine").Info("Shutting down caddie engine...")

	// In-flight optimizations get 5 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithService("caddie-engine").Fatalf("Caddie engine forced to shutdown: %v", err)
	}

	logger.WithService("caddie-engine").Info("Caddie engine exited")
}
