package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"quickfuel-admin/internal/api/interfaces"
	"quickfuel-admin/internal/api/models"
	"quickfuel-admin/internal/auth"
	"quickfuel-admin/internal/backend"
	"quickfuel-admin/internal/database"
	"quickfuel-admin/internal/session"
	"quickfuel-admin/internal/web/flash"
	"quickfuel-admin/pkg/config"
	"quickfuel-admin/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubBackend struct {
	mu       sync.Mutex
	stations []backend.Station
	orders   []backend.Order
	users    []backend.User
	err      error
	tokens   []string
}

func (b *stubBackend) BaseURL() string { return config.DefaultAPIBaseURL }

func (b *stubBackend) record(token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = append(b.tokens, token)
	return b.err
}

func (b *stubBackend) ListStations(_ context.Context, token string) ([]backend.Station, error) {
	if err := b.record(token); err != nil {
		return nil, err
	}
	return b.stations, nil
}

func (b *stubBackend) ListOrders(_ context.Context, token string) ([]backend.Order, error) {
	if err := b.record(token); err != nil {
		return nil, err
	}
	return b.orders, nil
}

func (b *stubBackend) ListUsers(_ context.Context, token string) ([]backend.User, error) {
	if err := b.record(token); err != nil {
		return nil, err
	}
	return b.users, nil
}

type stubAuthenticator map[string]*auth.Credentials

func (a stubAuthenticator) Authenticate(_ context.Context, email, password string) (*auth.Credentials, error) {
	creds, ok := a[email+":"+password]
	if !ok {
		return nil, auth.ErrInvalidCredentials
	}
	return creds, nil
}

type stubAudit struct {
	mu      sync.Mutex
	entries []database.AuditLog
}

func (a *stubAudit) InsertAuditLog(_ context.Context, log *database.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, *log)
	return nil
}

func (a *stubAudit) GetAuditLogs(_ context.Context, limit, offset int, action, userID string) ([]database.AuditLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []database.AuditLog
	for _, e := range a.entries {
		if (action == "" || e.Action == action) && (userID == "" || e.UserID == userID) {
			out = append(out, e)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (a *stubAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServices struct {
	log     *logger.Logger
	cfg     *config.Config
	store   *session.MemoryStore
	manager *session.Manager
	guard   *auth.Guard
	authn   stubAuthenticator
	backend *stubBackend
	audit   *stubAudit
	checks  map[string]interfaces.HealthChecker
}

func (s *testServices) GetLogger() *logger.Logger { return s.log }
func (s *testServices) GetConfig() *config.Config { return s.cfg }
func (s *testServices) SessionManager() *session.Manager { return s.manager }
func (s *testServices) Guard() *auth.Guard { return s.guard }
func (s *testServices) Authenticator() auth.Authenticator { return s.authn }
func (s *testServices) Backend() interfaces.Backend { return s.backend }
func (s *testServices) AuditLog() interfaces.AuditRecorder { return s.audit }
func (s *testServices) HealthChecks() map[string]interfaces.HealthChecker { return s.checks }

func newTestRouter(t *testing.T) (*gin.Engine, *testServices) {
	t.Helper()
	var logs bytes.Buffer
	log := logger.NewWithWriter("debug", &logs)

	cfg := &config.Config{}
	cfg.API.Timeout = time.Second
	cfg.API.PollInterval = 20 * time.Millisecond
	cfg.Session.TTL = time.Hour

	store := session.NewMemoryStore(0)
	t.Cleanup(func() { store.Close() })

	s := &testServices{
		log:     log,
		cfg:     cfg,
		store:   store,
		manager: session.NewManager(store, cfg.Session, log),
		guard:   auth.NewGuard("", log),
		authn:   stubAuthenticator{},
		backend: &stubBackend{},
		audit:   &stubAudit{},
		checks: map[string]interfaces.HealthChecker{
			"database": healthFunc(func(context.Context) error { return nil }),
		},
	}

	router := gin.New()
	require.NoError(t, SetupRoutes(router, s))
	return router, s
}

func seedSession(t *testing.T, s *testServices, token, details string) *http.Cookie {
	t.Helper()
	id := "sess-" + strings.ReplaceAll(t.Name(), "/", "-")
	require.NoError(t, s.store.Save(context.Background(), &session.Record{
		ID:          id,
		AccessToken: token,
		UserDetails: details,
		CreatedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(time.Hour),
	}))
	return &http.Cookie{Name: s.manager.CookieName(), Value: id}
}

func do(router *gin.Engine, method, path string, cookies []*http.Cookie, header http.Header, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// followFlash loads the login page with the flash cookie from rec and returns its body.
func followFlash(t *testing.T, router *gin.Engine, rec *httptest.ResponseRecorder) string {
	t.Helper()
	notice := cookieNamed(rec, flash.CookieName)
	require.NotNil(t, notice, "expected a flash cookie")
	next := do(router, http.MethodGet, "/login", []*http.Cookie{notice}, nil, "")
	require.Equal(t, http.StatusOK, next.Code)
	return next.Body.String()
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) models.BaseResponse {
	t.Helper()
	var resp models.BaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestPublicPages(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/", "/about", "/login"} {
		rec := do(router, http.MethodGet, path, nil, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "QuickFuel", path)
	}

	rec := do(router, http.MethodGet, "/ping", nil, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pong")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestGuardedPageRedirects(t *testing.T) {
	router, s := newTestRouter(t)

	t.Run("NoSession", func(t *testing.T) {
		rec := do(router, http.MethodGet, "/admin", nil, nil, "")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Contains(t, followFlash(t, router, rec), auth.NoticeNotAuthenticated)
	})

	t.Run("UnknownCookie", func(t *testing.T) {
		rec := do(router, http.MethodGet, "/account", []*http.Cookie{{Name: "qf_session", Value: "missing"}}, nil, "")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Contains(t, followFlash(t, router, rec), auth.NoticeNotAuthenticated)
	})

	t.Run("MalformedUserData", func(t *testing.T) {
		cookie := seedSession(t, s, "abc", `{not json`)
		rec := do(router, http.MethodGet, "/account", []*http.Cookie{cookie}, nil, "")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Contains(t, followFlash(t, router, rec), auth.NoticeUserDataMissing)
	})

	t.Run("WrongRole", func(t *testing.T) {
		cookie := seedSession(t, s, "abc", `{"role":"user","name":"Ram"}`)
		rec := do(router, http.MethodGet, "/admin/orders", []*http.Cookie{cookie}, nil, "")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Contains(t, followFlash(t, router, rec), auth.NoticeNoPermission)
	})

	t.Run("UnknownRoleOnAccount", func(t *testing.T) {
		cookie := seedSession(t, s, "abc", `{"role":"driver"}`)
		rec := do(router, http.MethodGet, "/account", []*http.Cookie{cookie}, nil, "")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})

	t.Run("FlashShownOnce", func(t *testing.T) {
		rec := do(router, http.MethodGet, "/admin/users", nil, nil, "")
		body := followFlash(t, router, rec)
		assert.Contains(t, body, auth.NoticeNotAuthenticated)

		again := do(router, http.MethodGet, "/login", nil, nil, "")
		assert.NotContains(t, again.Body.String(), auth.NoticeNotAuthenticated)
	})
}

func TestGuardedJSON(t *testing.T) {
	router, s := newTestRouter(t)

	tests := []struct {
		name    string
		details string
		status  int
		code    string
		notice  string
	}{
		{"NoSession", "", http.StatusUnauthorized, models.ErrCodeUnauthorized, auth.NoticeNotAuthenticated},
		{"Malformed", `[1,2]`, http.StatusUnauthorized, models.ErrCodeInvalidUserData, auth.NoticeUserDataMissing},
		{"MissingRole", `{"name":"x"}`, http.StatusUnauthorized, models.ErrCodeUserDataMissing, auth.NoticeUserDataMissing},
		{"WrongRole", `{"role":"user"}`, http.StatusForbidden, models.ErrCodeForbidden, auth.NoticeNoPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tt.details != "" {
				cookies = append(cookies, seedSession(t, s, "abc", tt.details))
			}
			rec := do(router, http.MethodGet, "/api/v1/admin/orders", cookies, nil, "")
			assert.Equal(t, tt.status, rec.Code)

			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.notice, resp.Error.Message)
			assert.Equal(t, "/login", resp.Redirect)
			assert.Nil(t, cookieNamed(rec, flash.CookieName))
		})
	}

	t.Run("AcceptHeaderOnPage", func(t *testing.T) {
		rec := do(router, http.MethodGet, "/admin", nil, http.Header{"Accept": {"application/json"}}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "/login", decodeResponse(t, rec).Redirect)
	})
}

func TestSessionEndpoint(t *testing.T) {
	router, s := newTestRouter(t)
	cookie := seedSession(t, s, "abc", `{"role":"user","name":"Sita","email":"sita@example.com"}`)

	rec := do(router, http.MethodGet, "/api/v1/session", []*http.Cookie{cookie}, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "authorized", data["state"])
	assert.Equal(t, false, data["loading"])
	assert.Equal(t, "user", data["role"])
	assert.Equal(t, "Sita", data["user"].(map[string]interface{})["name"])
}

func TestAdminPages(t *testing.T) {
	router, s := newTestRouter(t)
	cookie := seedSession(t, s, "admin-token", `{"role":"admin","name":"Admin"}`)
	s.backend.stations = []backend.Station{{ID: "s1", Name: "Ring Road Station", Status: "open"}}
	s.backend.orders = []backend.Order{{ID: "o1", Status: "pending", FuelType: "diesel"}, {ID: "o2", Status: "delivered"}}
	s.backend.users = []backend.User{{ID: "u1", Name: "Ram", Email: "ram@example.com"}}

	t.Run("Dashboard", func(t *testing.T) {
		rec := do(router, http.MethodGet, "/admin", []*http.Cookie{cookie}, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Dashboard")
		assert.Contains(t, rec.Body.String(), "Pending: 1")
	})

	t.Run("Lists", func(t *testing.T) {
		pages := map[string]string{
			"/admin/stations": "Ring Road Station",
			"/admin/orders":   "diesel",
			"/admin/users":    "ram@example.com",
			"/account":        "Admin",
		}
		for path, want := range pages {
			rec := do(router, http.MethodGet, path, []*http.Cookie{cookie}, nil, "")
			assert.Equal(t, http.StatusOK, rec.Code, path)
			assert.Contains(t, rec.Body.String(), want, path)
		}
		assert.Contains(t, s.backend.tokens, "admin-token")
	})

	t.Run("JSONLists", func(t *testing.T) {
		rec := do(router, http.MethodGet, "/api/v1/admin/orders", []*http.Cookie{cookie}, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeResponse(t, rec).Data.(map[string]interface{})
		assert.Equal(t, float64(2), data["count"])
		assert.Equal(t, map[string]interface{}{"pending": float64(1), "delivered": float64(1)}, data["by_status"])

		rec = do(router, http.MethodGet, "/api/v1/admin/stations", []*http.Cookie{cookie}, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("FetchFailureRendersError", func(t *testing.T) {
		s.backend.err = &backend.APIError{StatusCode: http.StatusInternalServerError, Message: "database down"}
		defer func() { s.backend.err = nil }()

		rec := do(router, http.MethodGet, "/admin/stations", []*http.Cookie{cookie}, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "database down")

		rec = do(router, http.MethodGet, "/api/v1/admin/stations", []*http.Cookie{cookie}, nil, "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, models.ErrCodeUpstreamError, decodeResponse(t, rec).Error.Code)
	})
}

func TestLoginLogoutFlow(t *testing.T) {
	router, s := newTestRouter(t)
	s.authn["admin@quickfuel.test:secret"] = &auth.Credentials{
		AccessToken: "abc",
		UserDetails: `{"role":"admin","id":"a1","name":"Admin"}`,
		User:        auth.NewUser("admin", map[string]interface{}{"id": "a1", "name": "Admin"}),
	}
	s.authn["ram@quickfuel.test:secret"] = &auth.Credentials{
		AccessToken: "def",
		UserDetails: `{"role":"user","id":"u1"}`,
		User:        auth.NewUser("user", map[string]interface{}{"id": "u1"}),
	}
	form := http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}

	t.Run("InvalidCredentials", func(t *testing.T) {
		body := url.Values{"email": {"admin@quickfuel.test"}, "password": {"wrong"}}.Encode()
		rec := do(router, http.MethodPost, "/login", nil, form, body)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Nil(t, cookieNamed(rec, "qf_session"))
		assert.Contains(t, followFlash(t, router, rec), "Invalid email or password")
	})

	t.Run("UserLandsOnAccount", func(t *testing.T) {
		body := url.Values{"email": {"ram@quickfuel.test"}, "password": {"secret"}}.Encode()
		rec := do(router, http.MethodPost, "/login", nil, form, body)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/account", rec.Header().Get("Location"))
	})

	body := url.Values{"email": {"admin@quickfuel.test"}, "password": {"secret"}}.Encode()
	rec := do(router, http.MethodPost, "/login", nil, form, body)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	sessionCookie := cookieNamed(rec, "qf_session")
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)

	rec = do(router, http.MethodGet, "/api/v1/session", []*http.Cookie{sessionCookie}, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodPost, "/logout", []*http.Cookie{sessionCookie}, nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Contains(t, followFlash(t, router, rec), "You have been signed out")

	rec = do(router, http.MethodGet, "/api/v1/session", []*http.Cookie{sessionCookie}, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, []string{"login_failed", "login", "login", "logout"}, s.audit.actions())
}

func TestLoginWithExpiredToken(t *testing.T) {
	router, s := newTestRouter(t)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "a1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	s.authn["admin@quickfuel.test:secret"] = &auth.Credentials{
		AccessToken: expired,
		UserDetails: `{"role":"admin","id":"a1"}`,
		User:        auth.NewUser("admin", map[string]interface{}{"id": "a1"}),
	}

	form := http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}
	body := url.Values{"email": {"admin@quickfuel.test"}, "password": {"secret"}}.Encode()
	rec := do(router, http.MethodPost, "/login", nil, form, body)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Nil(t, cookieNamed(rec, "qf_session"))
	assert.Zero(t, s.store.Len())
	page := followFlash(t, router, rec)
	assert.Contains(t, page, "Could not start your session")
	assert.NotContains(t, page, "Welcome back")
	assert.Empty(t, s.audit.actions())
}

func TestOrdersFeed(t *testing.T) {
	router, s := newTestRouter(t)
	cookie := seedSession(t, s, "abc", `{"role":"admin"}`)
	s.backend.orders = []backend.Order{{ID: "o1", Status: "pending"}}

	server := httptest.NewServer(router)
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/admin/ws/orders"

	t.Run("RequiresAdmin", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Cookie": {cookie.String()}})
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 2; i++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg models.WebSocketMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "orders_snapshot", msg.Type)
		data := msg.Data.(map[string]interface{})
		assert.Equal(t, float64(1), data["count"])
	}

	s.backend.mu.Lock()
	s.backend.err = errors.New("connection refused")
	s.backend.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		var msg models.WebSocketMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "error" {
			assert.NotEmpty(t, msg.Error)
			break
		}
	}
}

func TestHealthAndNotFound(t *testing.T) {
	router, s := newTestRouter(t)

	rec := do(router, http.MethodGet, "/health", nil, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database"`)

	s.checks["redis"] = healthFunc(func(context.Context) error { return errors.New("dial tcp: refused") })
	rec = do(router, http.MethodGet, "/health", nil, nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")

	rec = do(router, http.MethodGet, "/does-not-exist", nil, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "does not exist")

	rec = do(router, http.MethodGet, "/api/v1/nope", nil, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, models.ErrCodeNotFound, decodeResponse(t, rec).Error.Code)
}

func TestAuditLogEndpoint(t *testing.T) {
	router, s := newTestRouter(t)
	admin := seedSession(t, s, "admin-token", `{"role":"admin","name":"Admin"}`)
	s.audit.entries = []database.AuditLog{
		{ID: 1, Action: "login", UserID: "1"},
		{ID: 2, Action: "login_failed", UserID: "2"},
		{ID: 3, Action: "logout", UserID: "1"},
	}

	rec := do(router, http.MethodGet, "/api/v1/admin/audit-logs?user_id=1&limit=1", []*http.Cookie{admin}, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Items []database.AuditLog `json:"items"`
			Count int                 `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Data.Count)
	require.Len(t, body.Data.Items, 1)
	assert.Equal(t, "login", body.Data.Items[0].Action)

	user := seedSession(t, s, "user-token", `{"role":"user"}`)
	rec = do(router, http.MethodGet, "/api/v1/admin/audit-logs", []*http.Cookie{user}, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
