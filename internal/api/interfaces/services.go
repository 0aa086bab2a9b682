package interfaces

import (
	"context"

	"quickfuel-admin/internal/auth"
	"quickfuel-admin/internal/database"
	"quickfuel-admin/internal/session"
	"quickfuel-admin/pkg/config"
	"quickfuel-admin/pkg/logger"
)

// AuditRecorder persists and lists audit entries.
type AuditRecorder interface {
	InsertAuditLog(ctx context.Context, log *database.AuditLog) error
	GetAuditLogs(ctx context.Context, limit, offset int, action, userID string) ([]database.AuditLog, error)
}

// Services defines the interface for API services
type Services interface {
	GetLogger() *logger.Logger
	GetConfig() *config.Config
	SessionManager() *session.Manager
	Guard() *auth.Guard
	Authenticator() auth.Authenticator
	Backend() Backend
	AuditLog() AuditRecorder
	HealthChecks() map[string]HealthChecker
}
