package handlers

import (
	"context"
	"net/http"
	"time"

	"quickfuel-admin/internal/api/interfaces"
	"quickfuel-admin/internal/api/models"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoints.
var Version = "1.0.0"

var startedAt = time.Now()

// HealthCheck probes every registered dependency
func HealthCheck(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		resp := models.HealthCheckResponse{
			Status:    "healthy",
			Timestamp: time.Now().Unix(),
			Version:   Version,
			Uptime:    int64(time.Since(startedAt).Seconds()),
			Checks:    make(map[string]models.HealthCheck),
		}

		for name, checker := range services.HealthChecks() {
			start := time.Now()
			check := models.HealthCheck{Status: "healthy"}
			if err := checker.Ping(ctx); err != nil {
				check.Status = "unhealthy"
				check.Message = err.Error()
				resp.Status = "degraded"
			}
			check.Latency = time.Since(start).Round(time.Microsecond).String()
			resp.Checks[name] = check
		}

		status := http.StatusOK
		if resp.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}

// Ping answers liveness probes without touching dependencies
func Ping() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":   "pong",
			"timestamp": time.Now().Unix(),
		})
	}
}
