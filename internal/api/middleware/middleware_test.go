package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/sanity-adjacent/pkg/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/whoami", func(c *gin.Context) { c.String(http.StatusOK, CurrentUserID(c)) })
	return r
}

func do(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	tm := token.NewManager("secret", time.Hour, "test")
	tok, err := tm.Issue("u1")
	require.NoError(t, err)
	r := newEngine(AuthRequired(tm))

	w := do(r, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	w = do(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")

	w = do(r, "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthOptional(t *testing.T) {
	tm := token.NewManager("secret", time.Hour, "test")
	tok, err := tm.Issue("u1")
	require.NoError(t, err)
	r := newEngine(AuthOptional(tm))

	w := do(r, "Bearer "+tok)
	assert.Equal(t, "u1", w.Body.String())

	w = do(r, "Bearer garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestRateLimit(t *testing.T) {
	l := NewIPLimiter(1, 2)
	now := time.Now()
	l.now = func() time.Time { return now }
	r := newEngine(RateLimit(l))

	assert.Equal(t, http.StatusOK, do(r, "").Code)
	assert.Equal(t, http.StatusOK, do(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, "").Code)

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, do(r, "").Code)
}
