package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quickfuel-admin/internal/backend"
	"quickfuel-admin/internal/database"
	"quickfuel-admin/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Credentials are the session values produced by a successful login.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	UserDetails  string
	User         *User
}

// Authenticator exchanges an email and password for session credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*Credentials, error)
}

// LoginClient is the part of the backend client used for remote login.
type LoginClient interface {
	Login(ctx context.Context, email, password string) (*backend.LoginResult, error)
}

// RemoteAuthenticator delegates login to the QuickFuel backend.
type RemoteAuthenticator struct {
	client LoginClient
}

func NewRemoteAuthenticator(client LoginClient) *RemoteAuthenticator {
	return &RemoteAuthenticator{client: client}
}

// Authenticate implements Authenticator.
func (a *RemoteAuthenticator) Authenticate(ctx context.Context, email, password string) (*Credentials, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	result, err := a.client.Login(ctx, email, password)
	if err != nil {
		if backend.IsStatus(err, http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		return nil, err
	}

	details := string(result.UserDetails)
	user, err := ParseUser(details)
	if err != nil {
		return nil, fmt.Errorf("backend returned unusable user details: %w", err)
	}

	return &Credentials{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		UserDetails:  details,
		User:         user,
	}, nil
}

// UserFinder looks up locally stored users.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*database.User, error)
}

// loginRecorder is implemented by user stores that track the last login.
type loginRecorder interface {
	UpdateLastLogin(ctx context.Context, userID int64) error
}

// LocalAuthenticator checks passwords against the local users table and
// issues its own signed tokens.
type LocalAuthenticator struct {
	users      UserFinder
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

func NewLocalAuthenticator(users UserFinder, cfg config.SecurityConfig) (*LocalAuthenticator, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT secret key not configured")
	}
	expiration := cfg.JWTExpiration
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &LocalAuthenticator{
		users:      users,
		secret:     []byte(cfg.JWTSecret),
		expiration: expiration,
		now:        time.Now,
	}, nil
}

// Authenticate implements Authenticator.
func (a *LocalAuthenticator) Authenticate(ctx context.Context, email, password string) (*Credentials, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	record, err := a.users.GetByEmail(ctx, email)
	if err != nil || record == nil {
		// Unknown users look the same as bad passwords.
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	id := strconv.FormatInt(record.ID, 10)
	user := NewUser(record.Role, map[string]interface{}{
		"id":    id,
		"name":  record.Name,
		"email": record.Email,
		"phone": record.Phone,
	})
	details, err := user.Serialize()
	if err != nil {
		return nil, err
	}

	now := a.now()
	claims := jwt.MapClaims{
		"sub":   id,
		"role":  record.Role,
		"email": record.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(a.expiration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	refresh, err := randomToken(32)
	if err != nil {
		return nil, err
	}

	if recorder, ok := a.users.(loginRecorder); ok {
		if err := recorder.UpdateLastLogin(ctx, record.ID); err != nil {
			return nil, fmt.Errorf("failed to record login: %w", err)
		}
	}

	return &Credentials{
		AccessToken:  signed,
		RefreshToken: refresh,
		UserDetails:  details,
		User:         user,
	}, nil
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
