package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	ServiceName    = "URL Shortener"
	ServiceVersion = "1.0.0"
)

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type DatabaseChecker interface {
	HealthChecker
	Version(ctx context.Context) (string, error)
}

type HealthHandler struct {
	storageDriver string
	database      DatabaseChecker // nil with in-memory storage
	cache         HealthChecker   // nil when caching is disabled
}

func NewHealthHandler(storageDriver string, database DatabaseChecker, cache HealthChecker) *HealthHandler {
	return &HealthHandler{
		storageDriver: storageDriver,
		database:      database,
		cache:         cache,
	}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	status := "healthy"
	services := gin.H{
		"storage":  "healthy",
		"database": "disabled",
		"cache":    "disabled",
	}

	if h.database != nil {
		if err := h.database.HealthCheck(ctx); err != nil {
			services["database"] = "unhealthy"
			services["storage"] = "unhealthy"
			status = "degraded"
		} else {
			services["database"] = "healthy"
		}
	}

	// Cache failures degrade health but requests keep working without it.
	if h.cache != nil {
		if err := h.cache.HealthCheck(ctx); err != nil {
			services["cache"] = "unhealthy"
			status = "degraded"
		} else {
			services["cache"] = "healthy"
		}
	}

	statusCode := http.StatusOK
	if status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":   status,
		"services": services,
	})
}

func (h *HealthHandler) Info(c *gin.Context) {
	info := gin.H{
		"service":        ServiceName,
		"version":        ServiceVersion,
		"storage_driver": h.storageDriver,
		"cache_enabled":  h.cache != nil,
	}

	if h.database != nil {
		info["database_driver"] = "pgx"
		if version, err := h.database.Version(c.Request.Context()); err == nil {
			info["database_version"] = version
		}
	}

	if h.cache != nil {
		info["cache_driver"] = "redis"
	}

	c.JSON(http.StatusOK, info)
}
