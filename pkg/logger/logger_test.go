package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(level string) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewWithWriter(level, buf)
	l.SetFormatter("json")
	return l, buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	buf.Reset()
	return entry
}

func TestLoggerArguments(t *testing.T) {
	l, buf := newJSONLogger("debug")

	l.Info("Session created", "user_id", "42", "role", "admin")
	entry := decode(t, buf)
	assert.Equal(t, "Session created", entry["msg"])
	assert.Equal(t, "42", entry["user_id"])
	assert.Equal(t, "admin", entry["role"])

	l.Error("Login error for %s: %v", "a@b.c", errors.New("boom"))
	entry = decode(t, buf)
	assert.Equal(t, "Login error for a@b.c: boom", entry["msg"])
	assert.Equal(t, "error", entry["level"])

	l.Warning("Odd %d", 3)
	entry = decode(t, buf)
	assert.Equal(t, "Odd 3", entry["msg"])

	l.Debug("plain")
	entry = decode(t, buf)
	assert.Equal(t, "debug", entry["level"])
}

func TestLoggerLevel(t *testing.T) {
	l, buf := newJSONLogger("warn")
	l.Info("hidden")
	assert.Zero(t, buf.Len())

	require.NoError(t, l.SetLogLevel("info"))
	l.Info("shown")
	assert.NotZero(t, buf.Len())

	assert.Error(t, l.SetLogLevel("loud"))
}

func TestWithFieldsDoesNotLeak(t *testing.T) {
	l, buf := newJSONLogger("info")

	child := l.WithComponent("guard").WithField("path", "/admin")
	child.Info("checked")
	entry := decode(t, buf)
	assert.Equal(t, "guard", entry["component"])
	assert.Equal(t, "/admin", entry["path"])

	l.Info("parent")
	entry = decode(t, buf)
	assert.NotContains(t, entry, "component")
}

func TestEventLoggers(t *testing.T) {
	l, buf := newJSONLogger("info")

	l.AuditLogger("login", "7", "session", "ok")
	entry := decode(t, buf)
	assert.Equal(t, "audit", entry["event_type"])
	assert.Equal(t, "login", entry["action"])
	assert.Equal(t, "7", entry["user_id"])

	l.SecurityLogger("access_denied", "7", "role user")
	entry = decode(t, buf)
	assert.Equal(t, "security", entry["event_type"])
	assert.Equal(t, "warning", entry["level"])

	l.StructuredError(errors.New("disk full"), map[string]interface{}{"store": "sqlite"})
	entry = decode(t, buf)
	assert.Equal(t, "disk full", entry["error"])
	assert.Equal(t, "sqlite", entry["store"])
}

func TestGetLoggerFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	fallback := NewWithWriter("info", &bytes.Buffer{})
	assert.Same(t, fallback, GetLoggerFromContext(c, fallback))
	assert.NotNil(t, GetLoggerFromContext(c, nil))

	scoped := fallback.WithField("request_id", "abc")
	c.Set(ContextKey, scoped)
	assert.Same(t, scoped, GetLoggerFromContext(c, fallback))
}

func TestCloseWithoutFile(t *testing.T) {
	l := NewWithWriter("info", &bytes.Buffer{})
	assert.NoError(t, l.Close())
}

// syncBuffer is a bytes.Buffer safe for the writer goroutine logrus starts.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWriterKeepsFields(t *testing.T) {
	out := &syncBuffer{}
	l := NewWithWriter("info", out)
	l.SetFormatter("json")

	w := l.WithComponent("http").Writer()
	_, err := fmt.Fprintln(w, "http: TLS handshake error")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "TLS handshake error")
	}, time.Second, 10*time.Millisecond)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out.String())), &entry))
	assert.Equal(t, "http", entry["component"])
	assert.Equal(t, "http: TLS handshake error", entry["msg"])
}
