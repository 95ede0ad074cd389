package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/ikkim/atelier-catalog/config"
	"github.com/ikkim/atelier-catalog/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSessionConfig = config.SessionConfig{
	CookieName: "atelier_session",
	TTL:        time.Hour,
}

func setupSessionRouter(t *testing.T) (*gin.Engine, session.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	store := session.NewRedisStore(rdb, time.Hour)

	router := gin.New()
	router.Use(SessionMiddleware(store, testSessionConfig))
	router.GET("/count", func(c *gin.Context) {
		sess := GetSession(c)
		var n int
		if _, err := sess.Get("n", &n); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		n++
		_ = sess.Set("n", n)
		c.JSON(http.StatusOK, gin.H{"n": n})
	})
	router.GET("/peek", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"has_session": GetSession(c) != nil})
	})
	return router, store
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == testSessionConfig.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", testSessionConfig.CookieName)
	return nil
}

func TestSessionMiddleware_PersistsAcrossRequests(t *testing.T) {
	router, store := setupSessionRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/count", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"n":1}`, w.Body.String())

	cookie := sessionCookie(t, w)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)

	req := httptest.NewRequest("GET", "/count", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.JSONEq(t, `{"n":2}`, w.Body.String())
	assert.Equal(t, cookie.Value, sessionCookie(t, w).Value)

	stored, err := store.Load(context.Background(), cookie.Value)
	require.NoError(t, err)
	var n int
	found, err := stored.Get("n", &n)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, n)
}

func TestSessionMiddleware_ReplacesInvalidCookie(t *testing.T) {
	router, _ := setupSessionRouter(t)

	req := httptest.NewRequest("GET", "/count", nil)
	req.AddCookie(&http.Cookie{Name: testSessionConfig.CookieName, Value: "forged"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"n":1}`, w.Body.String())
	assert.NotEqual(t, "forged", sessionCookie(t, w).Value)
}

func TestSessionMiddleware_UnmodifiedSessionNotSaved(t *testing.T) {
	router, store := setupSessionRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/peek", nil))
	assert.JSONEq(t, `{"has_session":true}`, w.Body.String())

	// an id that was never saved loads as an empty session
	loaded, err := store.Load(context.Background(), sessionCookie(t, w).Value)
	require.NoError(t, err)
	found, err := loaded.Get("n", new(int))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetSession_WithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetSession(c))
}
