package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"quickfuel-admin/internal/database"
	"quickfuel-admin/internal/session"
)

// SessionRepository is a session.Store backed by the sessions table.
type SessionRepository struct {
	db  *database.DB
	now func() time.Time
}

var _ session.Store = (*SessionRepository)(nil)

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// Get implements session.Store.
func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Record, error) {
	query := r.db.Rebind(`
        SELECT id, access_token, COALESCE(refresh_token, ''), COALESCE(user_details, ''), created_at, expires_at
        FROM sessions
        WHERE id = ?
    `)

	var (
		record    session.Record
		expiresAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID, &record.AccessToken, &record.RefreshToken, &record.UserDetails,
		&record.CreatedAt, &expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		record.ExpiresAt = expiresAt.Time
	}
	if record.Expired(r.now()) {
		return nil, nil
	}
	return &record, nil
}

// Save implements session.Store.
func (r *SessionRepository) Save(ctx context.Context, record *session.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	var expiresAt interface{}
	if !record.ExpiresAt.IsZero() {
		expiresAt = record.ExpiresAt.UTC()
	}
	query := r.db.Rebind(`
        INSERT INTO sessions (id, access_token, refresh_token, user_details, created_at, expires_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            access_token = excluded.access_token,
            refresh_token = excluded.refresh_token,
            user_details = excluded.user_details,
            expires_at = excluded.expires_at
    `)
	_, err := r.db.ExecContext(ctx, query, record.ID, record.AccessToken, record.RefreshToken,
		record.UserDetails, record.CreatedAt.UTC(), expiresAt)
	return err
}

// Delete implements session.Store.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE id = ?`), id)
	return err
}

// Purge removes expired sessions and returns how many were deleted.
func (r *SessionRepository) Purge(ctx context.Context) (int64, error) {
	query := r.db.Rebind(`DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= ?`)
	result, err := r.db.ExecContext(ctx, query, r.now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
