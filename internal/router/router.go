package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/atelier-catalog/config"
	"github.com/ikkim/atelier-catalog/internal/app/controller"
	"github.com/ikkim/atelier-catalog/internal/middleware"
	"github.com/ikkim/atelier-catalog/internal/session"
)

type Router struct {
	catalogController *controller.CatalogController
	adminController   *controller.AdminController
	authMiddleware    *middleware.AuthMiddleware
	sessionStore      session.Store
	config            *config.Config
}

func NewRouter(
	catalogController *controller.CatalogController,
	adminController *controller.AdminController,
	authMiddleware *middleware.AuthMiddleware,
	sessionStore session.Store,
	cfg *config.Config,
) *Router {
	return &Router{
		catalogController: catalogController,
		adminController:   adminController,
		authMiddleware:    authMiddleware,
		sessionStore:      sessionStore,
		config:            cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORS(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Atelier catalog API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		// Storefront reads share the visitor session that feeds the
		// recently viewed tracker.
		storefront := v1.Group("")
		storefront.Use(middleware.SessionMiddleware(r.sessionStore, r.config.Session))
		{
			storefront.GET("/products", r.catalogController.ListProducts)
			storefront.GET("/products/:slug", r.catalogController.GetProduct)
			storefront.GET("/categories", r.catalogController.ListCategories)
			storefront.GET("/categories/*path", r.catalogController.ListCategoryProducts)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole(middleware.RoleAdmin))
		{
			admin.POST("/categories", r.adminController.CreateCategory)
			admin.PUT("/categories/:id", r.adminController.UpdateCategory)
			admin.DELETE("/categories/:id", r.adminController.DeleteCategory)

			admin.POST("/colors", r.adminController.CreateColor)
			admin.POST("/size-groups", r.adminController.CreateSizeGroup)
			admin.POST("/sizes", r.adminController.CreateSize)

			admin.POST("/parent-products", r.adminController.CreateParentProduct)
			admin.DELETE("/parent-products/:id", r.adminController.DeleteParentProduct)

			admin.POST("/products", r.adminController.CreateProduct)
			admin.PUT("/products/:id/prices", r.adminController.UpdatePrices)
			admin.PUT("/products/:id/stock", r.adminController.SetStock)
			admin.POST("/products/:id/images", r.adminController.AddImage)
		}
	}

	return router
}
