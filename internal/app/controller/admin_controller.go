package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/atelier-catalog/internal/app/service"
	apperrors "github.com/ikkim/atelier-catalog/internal/errors"
	"github.com/ikkim/atelier-catalog/internal/middleware"
	"github.com/ikkim/atelier-catalog/pkg/logger"
	"github.com/shopspring/decimal"
)

// AdminController serves the staff-only catalog writes. Field rules are
// enforced by the services, so requests only bind shape.
type AdminController struct {
	categoryService service.CategoryService
	adminService    service.CatalogAdminService
}

func NewAdminController(categoryService service.CategoryService, adminService service.CatalogAdminService) *AdminController {
	return &AdminController{
		categoryService: categoryService,
		adminService:    adminService,
	}
}

type CategoryRequest struct {
	Name     string `json:"name"`
	ParentID *uint  `json:"parent_id"`
}

type ColorRequest struct {
	Name    string `json:"name"`
	HexCode string `json:"hex_code"`
}

type SizeGroupRequest struct {
	Name string `json:"name"`
}

type SizeRequest struct {
	Name  string `json:"name"`
	Group string `json:"group" binding:"required"`
}

type ParentProductRequest struct {
	Name        string `json:"name"`
	CategoryID  *uint  `json:"category_id"`
	Description string `json:"description"`
	FabricInfo  string `json:"fabric_info"`
	SizesInfo   string `json:"sizes_info"`
}

type ProductRequest struct {
	ParentID        uint                `json:"parent_id" binding:"required"`
	Style           string              `json:"style"`
	ColorID         *uint               `json:"color_id"`
	Price           decimal.Decimal     `json:"price"`
	DiscountedPrice decimal.NullDecimal `json:"discounted_price"`
	MainImageURL    string              `json:"main_image_url"`
}

type PriceRequest struct {
	Price           decimal.Decimal     `json:"price"`
	DiscountedPrice decimal.NullDecimal `json:"discounted_price"`
}

type StockRequest struct {
	SizeID   uint `json:"size_id" binding:"required"`
	Quantity int  `json:"quantity"`
}

type ImageRequest struct {
	URL string `json:"url"`
}

func bindJSON(c *gin.Context, log *logger.Logger, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		log.Warn("Invalid admin request", map[string]interface{}{
			"path":  c.FullPath(),
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid request data")
		return false
	}
	return true
}

// CreateCategory POST /api/v1/admin/categories
func (ctrl *AdminController) CreateCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CategoryRequest
	if !bindJSON(c, log, &req) {
		return
	}

	category, err := ctrl.categoryService.CreateCategory(c.Request.Context(), service.CategoryInput{
		Name:     req.Name,
		ParentID: req.ParentID,
	})
	if err != nil {
		respondError(c, log, err, "create category")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// UpdateCategory renames or moves a category
// PUT /api/v1/admin/categories/:id
func (ctrl *AdminController) UpdateCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, log, "id")
	if !ok {
		return
	}
	var req CategoryRequest
	if !bindJSON(c, log, &req) {
		return
	}

	category, err := ctrl.categoryService.UpdateCategory(c.Request.Context(), id, service.CategoryInput{
		Name:     req.Name,
		ParentID: req.ParentID,
	})
	if err != nil {
		respondError(c, log, err, "update category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory DELETE /api/v1/admin/categories/:id
func (ctrl *AdminController) DeleteCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, log, "id")
	if !ok {
		return
	}
	if err := ctrl.categoryService.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, log, err, "delete category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}

// CreateColor POST /api/v1/admin/colors
func (ctrl *AdminController) CreateColor(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ColorRequest
	if !bindJSON(c, log, &req) {
		return
	}

	color, err := ctrl.adminService.CreateColor(c.Request.Context(), service.ColorInput{
		Name:    req.Name,
		HexCode: req.HexCode,
	})
	if err != nil {
		respondError(c, log, err, "create color")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"color": color})
}

// CreateSizeGroup POST /api/v1/admin/size-groups
func (ctrl *AdminController) CreateSizeGroup(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SizeGroupRequest
	if !bindJSON(c, log, &req) {
		return
	}

	group, err := ctrl.adminService.CreateSizeGroup(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, log, err, "create size group")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"size_group": group})
}

// CreateSize POST /api/v1/admin/sizes
func (ctrl *AdminController) CreateSize(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SizeRequest
	if !bindJSON(c, log, &req) {
		return
	}

	size, err := ctrl.adminService.CreateSize(c.Request.Context(), service.SizeInput{
		Name:      req.Name,
		GroupName: req.Group,
	})
	if err != nil {
		respondError(c, log, err, "create size")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"size": size})
}

// CreateParentProduct POST /api/v1/admin/parent-products
func (ctrl *AdminController) CreateParentProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ParentProductRequest
	if !bindJSON(c, log, &req) {
		return
	}

	parent, err := ctrl.adminService.CreateParentProduct(c.Request.Context(), service.ParentProductInput{
		Name:        req.Name,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		FabricInfo:  req.FabricInfo,
		SizesInfo:   req.SizesInfo,
	})
	if err != nil {
		respondError(c, log, err, "create parent product")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"parent_product": parent})
}

// DeleteParentProduct removes a parent product with all of its variants
// DELETE /api/v1/admin/parent-products/:id
func (ctrl *AdminController) DeleteParentProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, log, "id")
	if !ok {
		return
	}
	if err := ctrl.adminService.DeleteParentProduct(c.Request.Context(), id); err != nil {
		respondError(c, log, err, "delete parent product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "parent product deleted"})
}

// CreateProduct POST /api/v1/admin/products
func (ctrl *AdminController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ProductRequest
	if !bindJSON(c, log, &req) {
		return
	}

	product, err := ctrl.adminService.CreateProduct(c.Request.Context(), service.ProductInput{
		ParentID:        req.ParentID,
		Style:           req.Style,
		ColorID:         req.ColorID,
		Price:           req.Price,
		DiscountedPrice: req.DiscountedPrice,
		MainImageURL:    req.MainImageURL,
	})
	if err != nil {
		respondError(c, log, err, "create product")
		return
	}

	log.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
		"admin_id":   adminID(c),
	})
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdatePrices PUT /api/v1/admin/products/:id/prices
func (ctrl *AdminController) UpdatePrices(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, log, "id")
	if !ok {
		return
	}
	var req PriceRequest
	if !bindJSON(c, log, &req) {
		return
	}

	product, err := ctrl.adminService.UpdatePrices(c.Request.Context(), id, service.PriceInput{
		Price:           req.Price,
		DiscountedPrice: req.DiscountedPrice,
	})
	if err != nil {
		respondError(c, log, err, "update product prices")
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// SetStock PUT /api/v1/admin/products/:id/stock
func (ctrl *AdminController) SetStock(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, log, "id")
	if !ok {
		return
	}
	var req StockRequest
	if !bindJSON(c, log, &req) {
		return
	}

	stock, err := ctrl.adminService.SetStock(c.Request.Context(), id, service.StockInput{
		SizeID:   req.SizeID,
		Quantity: req.Quantity,
	})
	if err != nil {
		respondError(c, log, err, "update product stock")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock": stock})
}

// AddImage POST /api/v1/admin/products/:id/images
func (ctrl *AdminController) AddImage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, log, "id")
	if !ok {
		return
	}
	var req ImageRequest
	if !bindJSON(c, log, &req) {
		return
	}

	image, err := ctrl.adminService.AddImage(c.Request.Context(), id, req.URL)
	if err != nil {
		respondError(c, log, err, "create product image")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"image": image})
}

func adminID(c *gin.Context) uint {
	id, _ := middleware.GetUserID(c)
	return id
}
