package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/ikkim/atelier-catalog/config"
	"github.com/ikkim/atelier-catalog/internal/app/controller"
	"github.com/ikkim/atelier-catalog/internal/app/repository"
	"github.com/ikkim/atelier-catalog/internal/app/service"
	"github.com/ikkim/atelier-catalog/internal/cache"
	"github.com/ikkim/atelier-catalog/internal/db"
	"github.com/ikkim/atelier-catalog/internal/middleware"
	"github.com/ikkim/atelier-catalog/internal/session"
	"github.com/ikkim/atelier-catalog/pkg/util"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

var testCtx = context.Background()

type routerTestEnv struct {
	engine   *gin.Engine
	redis    *miniredis.Miniredis
	products repository.ProductRepository
	cfg      *config.Config
}

func setupRouterTest(t *testing.T) *routerTestEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		JWT:    config.JWTConfig{Secret: testSecret, AccessTokenExpiry: time.Hour, RefreshTokenExpiry: time.Hour},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"https://shop.example"}},
		Catalog: config.CatalogConfig{
			PageSize:          24,
			ViewFlushInterval: time.Hour,
			ViewCacheTTL:      24 * time.Hour,
			RecentViewWindow:  time.Hour,
			CategoryCacheTTL:  time.Minute,
		},
		Session: config.SessionConfig{CookieName: "atelier_session", TTL: time.Hour},
	}

	categoryRepo := repository.NewCategoryRepository(testDB, rdb, cfg.Catalog.CategoryCacheTTL)
	productRepo := repository.NewProductRepository(testDB)
	attrRepo := repository.NewAttributeRepository(testDB)

	counter := service.NewViewCounter(cache.NewRedisViewCache(rdb, cfg.Catalog.ViewCacheTTL), productRepo, cfg.Catalog.ViewFlushInterval, nil)
	tracker := service.NewRecentViewTracker(cfg.Catalog.RecentViewWindow, nil)
	categories := service.NewCategoryService(categoryRepo)
	catalog := service.NewCatalogService(categories, categoryRepo, productRepo, attrRepo,
		service.NewDefaultProductViewedSignal(tracker, counter), cfg.Catalog.PageSize)
	admin := service.NewCatalogAdminService(categoryRepo, productRepo, attrRepo)

	r := NewRouter(
		controller.NewCatalogController(catalog, categories),
		controller.NewAdminController(categories, admin),
		middleware.NewAuthMiddleware(testSecret),
		session.NewRedisStore(rdb, cfg.Session.TTL),
		cfg,
	)
	return &routerTestEnv{engine: r.Setup(), redis: mr, products: productRepo, cfg: cfg}
}

func (env *routerTestEnv) token(t *testing.T, role string) string {
	t.Helper()
	pair, err := util.GenerateTokenPair(1, "staff@atelier.example", role, testSecret, time.Hour, time.Hour)
	require.NoError(t, err)
	return pair.AccessToken
}

func (env *routerTestEnv) request(t *testing.T, method, path, token string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("response carries no %s cookie", name)
	return nil
}

func TestRouter_Health(t *testing.T) {
	env := setupRouterTest(t)

	w := env.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestRouter_CORS(t *testing.T) {
	env := setupRouterTest(t)

	tests := []struct {
		origin    string
		wantAllow string
	}{
		{"https://shop.example", "https://shop.example"},
		{"https://elsewhere.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			w := httptest.NewRecorder()
			env.engine.ServeHTTP(w, req)
			assert.Equal(t, tt.wantAllow, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRouter_AdminRequiresAdminRole(t *testing.T) {
	env := setupRouterTest(t)
	body := gin.H{"name": "Knitwear"}

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"non-admin", env.token(t, "editor"), http.StatusForbidden},
		{"admin", env.token(t, middleware.RoleAdmin), http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.request(t, http.MethodPost, "/api/v1/admin/categories", tt.token, body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}

	w := env.request(t, http.MethodGet, "/api/v1/categories/knitwear", "", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRouter_ProductViewsCountedOncePerSession(t *testing.T) {
	env := setupRouterTest(t)
	adminToken := env.token(t, middleware.RoleAdmin)

	w := env.request(t, http.MethodPost, "/api/v1/admin/parent-products", adminToken, gin.H{"name": "Wrap Coat"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var parent struct {
		ParentProduct struct {
			ID uint `json:"id"`
		} `json:"parent_product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parent))

	w = env.request(t, http.MethodPost, "/api/v1/admin/products", adminToken, gin.H{
		"parent_id":      parent.ParentProduct.ID,
		"style":          "Camel",
		"price":          "420.00",
		"main_image_url": "camel.jpg",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	const path = "/api/v1/products/wrap-coat-camel"
	w = env.request(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := sessionCookie(t, w, env.cfg.Session.CookieName)

	// Same visitor again: not a new view.
	w = env.request(t, http.MethodGet, path, "", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, cookie.Value, sessionCookie(t, w, env.cfg.Session.CookieName).Value)

	product, err := env.products.FindBySlug(testCtx, "wrap-coat-camel")
	require.NoError(t, err)
	assert.EqualValues(t, 1, product.Views, "first view is flushed immediately")

	// A second visitor is counted in the cache; the database write waits
	// for the flush interval.
	w = env.request(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	cached, err := env.redis.Get(cache.ViewCountKey(product.ID))
	require.NoError(t, err)
	assert.Equal(t, "2", cached)

	product, err = env.products.FindBySlug(testCtx, "wrap-coat-camel")
	require.NoError(t, err)
	assert.EqualValues(t, 1, product.Views)
}
