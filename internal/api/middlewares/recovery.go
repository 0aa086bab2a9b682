package middlewares

import (
	"fmt"
	"net/http"

	"quickfuel-admin/internal/api/models"
	"quickfuel-admin/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Recovery middleware recovers from panics
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.GetLoggerFromContext(c, log).StructuredError(fmt.Errorf("panic: %v", recovered), map[string]interface{}{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})

		resp := models.Failure(models.ErrCodeInternalError, "Internal server error")
		resp.RequestID = c.GetString("request_id")
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
	})
}
