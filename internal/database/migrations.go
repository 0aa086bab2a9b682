package database

import (
	"context"
	"fmt"
	"strings"
)

// RunMigrations executes database migrations
func RunMigrations(ctx context.Context, db *DB) error {
	migrations := []string{
		createUsersTable,
		createSessionsTable,
		createAuditLogsTable,
		createIndices,
	}

	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.Driver == "postgres" {
		idColumn = "SERIAL PRIMARY KEY"
	}

	for i, migration := range migrations {
		stmt := strings.ReplaceAll(migration, "{{id}}", idColumn)
		for _, part := range strings.Split(stmt, ";") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			if _, err := db.ExecContext(ctx, part); err != nil {
				return fmt.Errorf("migration %d failed: %w", i+1, err)
			}
		}
	}

	return nil
}

// Users exist only for local authentication; in remote mode the backend owns them.
const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id {{id}},
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    name VARCHAR(255),
    phone VARCHAR(50),
    role VARCHAR(20) NOT NULL DEFAULT 'user',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    last_login TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS sessions (
    id VARCHAR(64) PRIMARY KEY,
    access_token TEXT NOT NULL,
    refresh_token TEXT,
    user_details TEXT,
    created_at TIMESTAMP NOT NULL,
    expires_at TIMESTAMP
);`

const createAuditLogsTable = `
CREATE TABLE IF NOT EXISTS audit_logs (
    id {{id}},
    action VARCHAR(100) NOT NULL,
    user_id VARCHAR(255),
    details TEXT,
    ip_address VARCHAR(45),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

const createIndices = `
CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action, created_at);
CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
`
