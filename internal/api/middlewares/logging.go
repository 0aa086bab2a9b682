package middlewares

import (
	"time"

	"quickfuel-admin/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestLogging middleware logs HTTP requests and attaches a request scoped logger
func RequestLogging(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Set(logger.ContextKey, log.WithField("request_id", requestID))

		// Process request
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logData := map[string]interface{}{
			"request_id":  requestID,
			"method":      c.Request.Method,
			"path":        path,
			"query":       raw,
			"status_code": status,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
			"user_id":     c.GetString(ContextUserID),
		}

		// Log based on status code
		if status >= 500 {
			log.WithFields(logData).Error("HTTP request completed with server error")
		} else if status >= 400 {
			log.WithFields(logData).Warning("HTTP request completed with client error")
		} else {
			log.WithFields(logData).Info("HTTP request completed")
		}
	}
}
