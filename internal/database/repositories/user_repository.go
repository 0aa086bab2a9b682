package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"quickfuel-admin/internal/database"
)

// ErrUserNotFound is returned when no active user matches a lookup.
var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, COALESCE(name, ''), COALESCE(phone, ''), role,
               is_active, last_login, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *database.User) error {
	query := r.db.Rebind(`
        INSERT INTO users (email, password_hash, name, phone, role, is_active)
        VALUES (?, ?, ?, ?, ?, ?)
        RETURNING id
    `)
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	err := r.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash,
		user.Name, user.Phone, user.Role, true).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.IsActive = true
	return nil
}

// GetByEmail retrieves an active user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*database.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + `
        FROM users
        WHERE email = ? AND is_active = ?`)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email)), true))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*database.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + `
        FROM users
        WHERE id = ?`)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// ListUsers retrieves users with pagination, optionally filtered by role
func (r *UserRepository) ListUsers(ctx context.Context, role string, limit, offset int) ([]database.User, error) {
	query := `SELECT ` + userColumns + `
        FROM users
        WHERE 1=1`
	args := []interface{}{}

	if role != "" {
		query += " AND role = ?"
		args = append(args, role)
	}

	query += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []database.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	query := r.db.Rebind(`
        UPDATE users
        SET last_login = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
        WHERE id = ?
    `)
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// UpdatePassword updates user password
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	query := r.db.Rebind(`UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	return err
}

// SetActive activates or deactivates a user
func (r *UserRepository) SetActive(ctx context.Context, userID int64, active bool) error {
	query := r.db.Rebind(`UPDATE users SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, active, userID)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*database.User, error) {
	var user database.User
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Phone, &user.Role,
		&user.IsActive, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
