package repositories

import (
	"context"
	"time"

	"quickfuel-admin/internal/database"
)

type AuditLogRepository struct {
	db *database.DB
}

func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// InsertAuditLog inserts a new audit log entry
func (r *AuditLogRepository) InsertAuditLog(ctx context.Context, log *database.AuditLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	query := r.db.Rebind(`
        INSERT INTO audit_logs (action, user_id, details, ip_address, created_at)
        VALUES (?, ?, ?, ?, ?)
        RETURNING id
    `)
	return r.db.QueryRowContext(ctx, query, log.Action, log.UserID, log.Details,
		log.IPAddress, log.CreatedAt).Scan(&log.ID)
}

// GetAuditLogs retrieves audit logs newest first, optionally filtered by action and user
func (r *AuditLogRepository) GetAuditLogs(ctx context.Context, limit, offset int, action, userID string) ([]database.AuditLog, error) {
	query := `
        SELECT id, action, COALESCE(user_id, ''), COALESCE(details, ''), COALESCE(ip_address, ''), created_at
        FROM audit_logs
        WHERE 1=1
    `
	args := []interface{}{}

	if action != "" {
		query += " AND action = ?"
		args = append(args, action)
	}

	if userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []database.AuditLog
	for rows.Next() {
		var log database.AuditLog
		if err := rows.Scan(&log.ID, &log.Action, &log.UserID, &log.Details, &log.IPAddress, &log.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}
