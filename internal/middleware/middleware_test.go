package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-dashboard/internal/database"
	"github.com/jwalitptl/clinic-dashboard/internal/database/dbtest"
	"github.com/jwalitptl/clinic-dashboard/internal/model"
	"github.com/jwalitptl/clinic-dashboard/internal/web"
	apperrors "github.com/jwalitptl/clinic-dashboard/pkg/errors"
	"github.com/jwalitptl/clinic-dashboard/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(t *testing.T, mw ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	tmpl, err := web.Templates()
	require.NoError(t, err)
	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(mw...)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := newEngine(t, RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
	assert.Equal(t, w.Header().Get(HeaderXRequestID), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "abc")
	w = serve(r, req)
	assert.Equal(t, "abc", w.Header().Get(HeaderXRequestID))
}

func TestErrorHandler(t *testing.T) {
	r := newEngine(t, RequestID(), ErrorHandler())
	r.GET("/page/missing", func(c *gin.Context) { _ = c.Error(apperrors.NewNotFound("appointment", nil)) })
	r.GET("/page/wrapped", func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("failed to get appointment: %w", apperrors.NewNotFound("appointment", sql.ErrNoRows)))
	})
	r.GET("/page/broken", func(c *gin.Context) { _ = c.Error(errors.New("disk on fire")) })
	r.GET("/api/broken", func(c *gin.Context) { _ = c.Error(errors.New("disk on fire")) })
	r.NoRoute(NotFound())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/page/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "does not exist")

	w = serve(r, httptest.NewRequest(http.MethodGet, "/page/wrapped", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "does not exist")

	w = serve(r, httptest.NewRequest(http.MethodGet, "/page/broken", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/broken", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusInternalServerError, body.Code)
	assert.Equal(t, w.Header().Get(HeaderXRequestID), body.TraceID)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecovery(t *testing.T) {
	r := newEngine(t, RequestID(), Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestDatabaseScopeReleased(t *testing.T) {
	db := dbtest.Open(t)
	m := metrics.NewMetrics("test", prometheus.NewRegistry())

	var inFlight float64
	r := newEngine(t, RequestID(), Recovery(), Database(db, m))
	r.GET("/query", func(c *gin.Context) {
		q, err := db.QuerierFrom(c.Request.Context())
		require.NoError(t, err)
		var n int
		require.NoError(t, sqlxGet(c.Request.Context(), q, &n))
		inFlight = testutil.ToFloat64(m.ConnectionsInUse)
		c.Status(http.StatusNoContent)
	})
	r.GET("/panic", func(c *gin.Context) {
		_, err := db.QuerierFrom(c.Request.Context())
		require.NoError(t, err)
		panic("boom")
	})
	r.GET("/idle", func(c *gin.Context) {
		s, ok := database.ScopeFrom(c.Request.Context())
		require.True(t, ok)
		assert.False(t, s.Acquired())
		c.Status(http.StatusNoContent)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/query", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1.0, inFlight)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ConnectionsInUse))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ConnectionsInUse))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/idle", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, db.Stats().InUse)
}

func sqlxGet(ctx context.Context, q database.Querier, dest *int) error {
	return q.QueryRowxContext(ctx, `SELECT COUNT(*) FROM users`).Scan(dest)
}

type fakeSessions map[string]*model.User

func (f fakeSessions) ResolveSession(_ context.Context, token string) (*model.User, error) {
	if token == "explode" {
		return nil, errors.New("database unavailable")
	}
	if u, ok := f[token]; ok {
		return u, nil
	}
	return nil, apperrors.Unauthorized(errors.New("invalid session"))
}

func TestAuthMiddleware(t *testing.T) {
	auth := NewAuthMiddleware(fakeSessions{"good": {ID: 7, Name: "Ann"}}, "session")
	r := newEngine(t, RequestID(), ErrorHandler(), auth.LoadSession())
	r.GET("/page", auth.RequireLogin(), func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	r.GET("/api/data", auth.RequireAPIAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })

	request := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.AddCookie(&http.Cookie{Name: "session", Value: token})
		}
		return serve(r, req)
	}

	w := request("/page", "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())

	for _, token := range []string{"", "stale"} {
		w = request("/page", token)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))

		w = request("/api/data", token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w = request("/page", "explode")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: rate.Limit(0.001), Burst: 2})
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"))

	r := newEngine(t)
	r.POST("/login", NewRateLimiter(RateLimiterConfig{Rate: rate.Limit(0.001), Burst: 1}).RateLimit(),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	w = serve(r, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many login attempts")
}

func TestSizeLimit(t *testing.T) {
	r := newEngine(t, SizeLimit(SizeLimitConfig{MaxBodySize: 16}))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("short")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestSecurityHeadersAndNoStore(t *testing.T) {
	r := newEngine(t, SecurityHeaders(DefaultSecurityConfig(false)), NoStore())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}
