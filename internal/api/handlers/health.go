package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fairway-labs/caddie-engine/internal/types"
	"github.com/fairway-labs/caddie-engine/internal/websocket"
)

const serviceName = "caddie-engine"

var startedAt = time.Now()

// HealthHandler handles health check endpoints
type HealthHandler struct {
	redis  *redis.Client
	wsHub  *websocket.Hub
	logger *logrus.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(
	redis *redis.Client,
	wsHub *websocket.Hub,
	logger *logrus.Logger,
) *HealthHandler {
	return &HealthHandler{
		redis:  redis,
		wsHub:  wsHub,
		logger: logger,
	}
}

// GetHealth returns the basic health status
func (h *HealthHandler) GetHealth(c *gin.Context) {
	response := types.HealthStatus{
		Status:    "ok",
		Service:   serviceName,
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	// Redis is only needed for result caching; the engine works without it
	if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
		response.Status = "degraded"
		response.Checks["redis"] = "failed: " + err.Error()
	} else {
		response.Checks["redis"] = "ok"
	}

	statusCode := http.StatusOK
	if response.Status == "degraded" {
		statusCode = http.StatusPartialContent
	}

	c.JSON(statusCode, response)
}

// GetReady returns the readiness status
func (h *HealthHandler) GetReady(c *gin.Context) {
	response := types.HealthStatus{
		Status:    "ready",
		Service:   serviceName,
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
		response.Checks["redis"] = "failed: " + err.Error()
		// Cache misses on every request, but the engine still serves
	} else {
		response.Checks["redis"] = "ok"
	}

	c.JSON(http.StatusOK, response)
}

// GetMetrics returns lightweight service metrics
func (h *HealthHandler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":           serviceName,
		"uptime_seconds":    int64(time.Since(startedAt).Seconds()),
		"websocket_clients": h.wsHub.GetConnectionCount(),
	})
}
