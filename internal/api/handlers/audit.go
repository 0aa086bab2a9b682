package handlers

import (
	"net/http"
	"strconv"

	"quickfuel-admin/internal/api/interfaces"
	"quickfuel-admin/internal/api/models"
	"quickfuel-admin/internal/database"

	"github.com/gin-gonic/gin"
)

// GetAuditLogs lists recorded login and logout events with filtering and pagination
func GetAuditLogs(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 50
		offset := 0
		if limitStr := c.Query("limit"); limitStr != "" {
			if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
				limit = l
			}
		}
		if offsetStr := c.Query("offset"); offsetStr != "" {
			if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
				offset = o
			}
		}

		logs, err := services.AuditLog().GetAuditLogs(c.Request.Context(), limit, offset, c.Query("action"), c.Query("user_id"))
		if err != nil {
			services.GetLogger().Error("Error getting audit logs: %v", err)
			resp := models.Failure(models.ErrCodeInternalError, "Failed to retrieve audit logs")
			resp.RequestID = c.GetString("request_id")
			c.JSON(http.StatusInternalServerError, resp)
			return
		}
		if logs == nil {
			logs = []database.AuditLog{}
		}

		c.JSON(http.StatusOK, models.Success(models.ListResponse{Items: logs, Count: len(logs)}))
	}
}
