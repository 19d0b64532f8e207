package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dqrepair/pipeline/internal/http/middleware"
)

func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "dqrepair",
	})
}

// MetricsHandler returns basic request-count and latency metrics for observability.
func MetricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.GetMetrics())
}
