package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"quickfuel-admin/internal/api/interfaces"
	"quickfuel-admin/internal/api/middlewares"
	"quickfuel-admin/internal/backend"
	"quickfuel-admin/internal/database"
	"quickfuel-admin/internal/web/flash"
	"quickfuel-admin/pkg/logger"

	"github.com/gin-gonic/gin"
)

func getClientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.ClientIP()
}

func createAuditLog(c *gin.Context, services interfaces.Services, action, userID, details string) {
	auditLog := &database.AuditLog{
		Action:    action,
		UserID:    userID,
		Details:   details,
		IPAddress: getClientIP(c),
		CreatedAt: time.Now().UTC(),
	}

	log := logger.GetLoggerFromContext(c, services.GetLogger())
	log.AuditLogger(action, userID, c.Request.URL.Path, details)

	// The audit row must outlive a client that hangs up mid request.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 5*time.Second)
	defer cancel()
	if err := services.AuditLog().InsertAuditLog(ctx, auditLog); err != nil {
		log.Error("Failed to create audit log: %v", err)
	}
}

// renderPage renders a template with the pending flash notice and current user.
func renderPage(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if notice, ok := flash.ReadAndClear(c.Writer, c.Request); ok {
		data["Notice"] = notice
	}
	if user, ok := middlewares.CurrentUser(c); ok {
		data["User"] = user
		data["IsAdmin"] = user.Role == "admin"
	}
	c.HTML(status, name, data)
}

// fetchError turns a backend failure into a message fit for a page.
func fetchError(err error, what string) string {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "The QuickFuel API did not respond in time while loading " + what + "."
	case backend.IsStatus(err, http.StatusUnauthorized, http.StatusForbidden):
		return "The QuickFuel API rejected your session while loading " + what + ". Please sign in again."
	case errors.As(err, &apiErr):
		return "Failed to load " + what + ": " + apiErr.Message
	default:
		return "Failed to load " + what + ". Please try again later."
	}
}

func timeoutContext(c *gin.Context, services interfaces.Services) (context.Context, context.CancelFunc) {
	timeout := services.GetConfig().API.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}
