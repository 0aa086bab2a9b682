package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"quickfuel-admin/pkg/config"
	"quickfuel-admin/pkg/logger"
)

// Tokens are the credentials issued at login.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// Manager binds a Store to the browser session cookie.
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	secure     bool
	log        *logger.Logger
	now        func() time.Time
}

// NewManager creates a session manager over store.
func NewManager(store Store, cfg config.SessionConfig, log *logger.Logger) *Manager {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "qf_session"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		store:      store,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     cfg.SecureCookie,
		log:        log.WithComponent("session"),
		now:        time.Now,
	}
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Load returns the session values for the request. A request without a
// session, or whose session cannot be read, yields an empty Provider.
func (m *Manager) Load(ctx context.Context, r *http.Request) Provider {
	record, err := m.Current(ctx, r)
	if err != nil {
		m.log.WithField("error", err.Error()).Error("Failed to load session")
		return Empty
	}
	if record == nil {
		return Empty
	}
	return record
}

// Current returns the stored record for the request, or nil when there is none.
func (m *Manager) Current(ctx context.Context, r *http.Request) (*Record, error) {
	id, ok := m.readCookie(r)
	if !ok {
		return nil, nil
	}
	record, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if record == nil || record.Expired(m.now()) {
		return nil, nil
	}
	return record, nil
}

// Create persists a new session and sets the session cookie. Any session the
// request already carries is replaced.
func (m *Manager) Create(ctx context.Context, w http.ResponseWriter, r *http.Request, tokens Tokens, userDetails string) (*Record, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)
	if exp, ok := TokenExpiry(tokens.AccessToken); ok {
		if !exp.After(now) {
			return nil, ErrTokenExpired
		}
		if exp.Before(expiresAt) {
			expiresAt = exp
		}
	}

	if previous, ok := m.readCookie(r); ok {
		if err := m.store.Delete(ctx, previous); err != nil {
			m.log.WithField("error", err.Error()).Warning("Failed to delete previous session")
		}
	}

	record := &Record{
		ID:           uuid.NewString(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		UserDetails:  userDetails,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
	}

	if err := m.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	maxAge := int(expiresAt.Sub(now).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    record.ID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	return record, nil
}

// Destroy deletes the request's session and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	id, ok := m.readCookie(r)
	if !ok {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (m *Manager) readCookie(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie == nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return "", false
	}
	return value, true
}

// TokenExpiry returns the exp claim of a JWT access token. The signature is
// not verified; the result only bounds how long the session is kept.
func TokenExpiry(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
