// Package session holds the persisted login session and the provider
// abstraction through which protected pages read it.
//
// A session is written at login, read by every protected page and erased at
// logout. Pages never touch the backing store directly; they receive a
// Provider for the current request from a Manager.
package session

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Keys under which session values are exposed to a Provider.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserDetails  = "userDetails"
)

// ErrInvalidRecord is returned when a record cannot be persisted.
var ErrInvalidRecord = errors.New("invalid session record")

// ErrTokenExpired is returned when a session is created for an access token
// whose exp claim has already passed.
var ErrTokenExpired = errors.New("access token already expired")

// Provider exposes read-only access to the values of one session.
type Provider interface {
	// Lookup returns the value stored under key and whether it is present.
	Lookup(key string) (string, bool)
}

// Values is a Provider backed by a plain map.
type Values map[string]string

// Lookup implements Provider.
func (v Values) Lookup(key string) (string, bool) {
	value, ok := v[key]
	return value, ok
}

// Empty is a Provider with no values.
var Empty Provider = Values(nil)

// Record is a persisted session.
type Record struct {
	ID           string    `json:"id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	UserDetails  string    `json:"user_details"` // serialized user object as received at login
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Lookup implements Provider. Empty fields are reported as absent.
func (r *Record) Lookup(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	var value string
	switch key {
	case KeyAccessToken:
		value = r.AccessToken
	case KeyRefreshToken:
		value = r.RefreshToken
	case KeyUserDetails:
		value = r.UserDetails
	default:
		return "", false
	}
	return value, value != ""
}

// Expired reports whether the record has passed its expiry at now.
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Validate checks that a record can be stored.
func (r *Record) Validate() error {
	if r == nil || strings.TrimSpace(r.ID) == "" {
		return ErrInvalidRecord
	}
	return nil
}

// Store persists session records by id.
type Store interface {
	// Get returns the record with the given id. A missing or expired record
	// yields nil without an error.
	Get(ctx context.Context, id string) (*Record, error)
	// Save creates or replaces a record.
	Save(ctx context.Context, record *Record) error
	// Delete removes a record. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}
