package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/morphic/api/internal/database"
	"github.com/morphic/api/internal/eventbus"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db    *database.SQLite
	redis *database.Redis
	bus   *eventbus.Publisher
}

// NewHealthHandler creates a new health handler. redis and bus are
// optional and reported as not configured when nil.
func NewHealthHandler(db *database.SQLite, redis *database.Redis, bus *eventbus.Publisher) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, bus: bus}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

// Health returns basic health status
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "morphic-api",
		"version": "0.1.0",
	})
}

// DeepHealth returns health status with dependency checks. Optional
// dependencies degrade the report but only the cache database failing
// flips the overall status.
func (h *HealthHandler) DeepHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	deps := make(map[string]string)
	allHealthy := true

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			deps["cache_db"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			deps["cache_db"] = "healthy"
		}
	} else {
		deps["cache_db"] = "not configured"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			deps["redis"] = "unhealthy: " + err.Error()
		} else {
			deps["redis"] = "healthy"
		}
	} else {
		deps["redis"] = "not configured"
	}

	if h.bus != nil {
		if h.bus.Healthy() {
			deps["eventbus"] = "healthy"
		} else {
			deps["eventbus"] = "disconnected"
		}
	} else {
		deps["eventbus"] = "not configured"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:       status,
		Service:      "morphic-api",
		Version:      "0.1.0",
		Dependencies: deps,
	})
}
