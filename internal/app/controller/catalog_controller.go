package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/atelier-catalog/internal/app/service"
	"github.com/ikkim/atelier-catalog/internal/middleware"
)

type CatalogController struct {
	catalogService  service.CatalogService
	categoryService service.CategoryService
}

func NewCatalogController(catalogService service.CatalogService, categoryService service.CategoryService) *CatalogController {
	return &CatalogController{
		catalogService:  catalogService,
		categoryService: categoryService,
	}
}

func listOptions(c *gin.Context, categoryPath string) service.ListOptions {
	query := c.Request.URL.Query()
	return service.ListOptions{
		CategoryPath: categoryPath,
		Params:       query,
		OrderBy:      query.Get("order_by"),
		Page:         query.Get("page"),
	}
}

// ListProducts returns the available products of the whole catalog
// GET /api/v1/products
func (ctrl *CatalogController) ListProducts(c *gin.Context) {
	ctrl.list(c, "")
}

// ListCategoryProducts returns the available products of a category and
// all of its descendants
// GET /api/v1/categories/*path
func (ctrl *CatalogController) ListCategoryProducts(c *gin.Context) {
	ctrl.list(c, c.Param("path"))
}

func (ctrl *CatalogController) list(c *gin.Context, categoryPath string) {
	log := middleware.GetLoggerFromContext(c)

	listing, err := ctrl.catalogService.ListProducts(c.Request.Context(), listOptions(c, categoryPath))
	if err != nil {
		respondError(c, log, err, "list products")
		return
	}

	log.Info("Products listed", map[string]interface{}{
		"category": categoryPath,
		"count":    len(listing.Products),
		"page":     listing.Pagination.Page,
	})
	c.JSON(http.StatusOK, listing)
}

// ListCategories returns the root categories
// GET /api/v1/categories
func (ctrl *CatalogController) ListCategories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	roots, err := ctrl.categoryService.GetRoots(c.Request.Context())
	if err != nil {
		respondError(c, log, err, "list categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": roots,
		"count":      len(roots),
	})
}

// GetProduct returns a product by slug, in stock or not, and records the
// view against the visitor's session
// GET /api/v1/products/:slug
func (ctrl *CatalogController) GetProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	slug := c.Param("slug")

	detail, err := ctrl.catalogService.GetProductDetail(c.Request.Context(), slug, middleware.GetSession(c))
	if err != nil {
		respondError(c, log, err, "get product")
		return
	}

	log.Info("Product fetched successfully", map[string]interface{}{
		"product_id": detail.Product.ID,
		"slug":       slug,
	})
	c.JSON(http.StatusOK, detail)
}
