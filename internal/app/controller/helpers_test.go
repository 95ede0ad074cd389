package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/atelier-catalog/internal/app/repository"
	"github.com/ikkim/atelier-catalog/internal/app/service"
	"github.com/ikkim/atelier-catalog/internal/db"
	apperrors "github.com/ikkim/atelier-catalog/internal/errors"
	"github.com/ikkim/atelier-catalog/internal/middleware"
	"github.com/ikkim/atelier-catalog/internal/session"
	"github.com/stretchr/testify/require"
)

var testCtx = context.Background()

type controllerTestEnv struct {
	router     *gin.Engine
	categories service.CategoryService
	admin      service.CatalogAdminService
	session    *session.Session
	views      []uint
}

// setupControllerTest wires both controllers on SQLite. Every request runs
// with the same session and an admin identity; views records the product
// ids passed to the product-viewed signal.
func setupControllerTest(t *testing.T, pageSize int) *controllerTestEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	categoryRepo := repository.NewCategoryRepository(testDB, nil, time.Minute)
	productRepo := repository.NewProductRepository(testDB)
	attrRepo := repository.NewAttributeRepository(testDB)

	env := &controllerTestEnv{session: session.New()}
	env.categories = service.NewCategoryService(categoryRepo)
	env.admin = service.NewCatalogAdminService(categoryRepo, productRepo, attrRepo)
	viewed := service.NewProductViewedSignal(func(_ context.Context, ev service.ProductViewed) error {
		env.views = append(env.views, ev.Product.ID)
		return nil
	})
	catalog := service.NewCatalogService(env.categories, categoryRepo, productRepo, attrRepo, viewed, pageSize)

	catalogController := NewCatalogController(catalog, env.categories)
	adminController := NewAdminController(env.categories, env.admin)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.SessionKey, env.session)
		c.Set(middleware.UserIDKey, uint(1))
		c.Set(middleware.UserRoleKey, middleware.RoleAdmin)
		c.Next()
	})

	router.GET("/api/v1/products", catalogController.ListProducts)
	router.GET("/api/v1/products/:slug", catalogController.GetProduct)
	router.GET("/api/v1/categories", catalogController.ListCategories)
	router.GET("/api/v1/categories/*path", catalogController.ListCategoryProducts)

	admin := router.Group("/api/v1/admin")
	admin.POST("/categories", adminController.CreateCategory)
	admin.PUT("/categories/:id", adminController.UpdateCategory)
	admin.DELETE("/categories/:id", adminController.DeleteCategory)
	admin.POST("/colors", adminController.CreateColor)
	admin.POST("/size-groups", adminController.CreateSizeGroup)
	admin.POST("/sizes", adminController.CreateSize)
	admin.POST("/parent-products", adminController.CreateParentProduct)
	admin.DELETE("/parent-products/:id", adminController.DeleteParentProduct)
	admin.POST("/products", adminController.CreateProduct)
	admin.PUT("/products/:id/prices", adminController.UpdatePrices)
	admin.PUT("/products/:id/stock", adminController.SetStock)
	admin.POST("/products/:id/images", adminController.AddImage)

	env.router = router
	return env
}

func (env *controllerTestEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		var raw []byte
		switch b := body.(type) {
		case string:
			raw = []byte(b)
		default:
			var err error
			raw, err = json.Marshal(b)
			require.NoError(t, err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}

func jsonUnmarshal(w *httptest.ResponseRecorder, dest interface{}) error {
	return json.Unmarshal(w.Body.Bytes(), dest)
}
