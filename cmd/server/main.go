package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/atelier-catalog/config"
	"github.com/ikkim/atelier-catalog/internal/app/controller"
	"github.com/ikkim/atelier-catalog/internal/app/repository"
	"github.com/ikkim/atelier-catalog/internal/app/service"
	"github.com/ikkim/atelier-catalog/internal/cache"
	"github.com/ikkim/atelier-catalog/internal/db"
	"github.com/ikkim/atelier-catalog/internal/middleware"
	"github.com/ikkim/atelier-catalog/internal/router"
	"github.com/ikkim/atelier-catalog/internal/scheduler"
	"github.com/ikkim/atelier-catalog/internal/session"
	"github.com/ikkim/atelier-catalog/pkg/logger"
	redispkg "github.com/ikkim/atelier-catalog/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting Atelier catalog server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs the view counters, sessions and the category cache. The
	// client reconnects on its own, so an unreachable server at boot only
	// means a cold cache.
	if err := redispkg.Init(&cfg.Redis); err != nil {
		logger.Warn("Starting without a reachable Redis", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer func() {
		if err := redispkg.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()
	rdb := redispkg.GetClient()

	// Initialize repositories
	categoryRepo := repository.NewCategoryRepository(db.GetDB(), rdb, cfg.Catalog.CategoryCacheTTL)
	productRepo := repository.NewProductRepository(db.GetDB())
	attrRepo := repository.NewAttributeRepository(db.GetDB())

	// Initialize services
	viewCounter := service.NewViewCounter(
		cache.NewRedisViewCache(rdb, cfg.Catalog.ViewCacheTTL),
		productRepo,
		cfg.Catalog.ViewFlushInterval,
		nil,
	)
	tracker := service.NewRecentViewTracker(cfg.Catalog.RecentViewWindow, nil)
	viewed := service.NewDefaultProductViewedSignal(tracker, viewCounter)

	categoryService := service.NewCategoryService(categoryRepo)
	catalogService := service.NewCatalogService(categoryService, categoryRepo, productRepo, attrRepo, viewed, cfg.Catalog.PageSize)
	adminService := service.NewCatalogAdminService(categoryRepo, productRepo, attrRepo)

	// Initialize controllers
	catalogController := controller.NewCatalogController(catalogService, categoryService)
	adminController := controller.NewAdminController(categoryService, adminService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	sessionStore := session.NewRedisStore(rdb, cfg.Session.TTL)

	// Start view flush scheduler
	flushScheduler := scheduler.NewViewFlushScheduler(cfg.Scheduler.ViewFlushCron, viewCounter)
	if err := flushScheduler.Start(); err != nil {
		logger.Fatal("Failed to start view flush scheduler", err)
	}
	defer flushScheduler.Stop()

	// Setup router
	r := router.NewRouter(catalogController, adminController, authMiddleware, sessionStore, cfg)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shut down", err)
	}

	// Sweep counters that are overdue for a durable write.
	if flushed, err := viewCounter.FlushStale(ctx); err != nil {
		logger.Error("Final view flush failed", err, map[string]interface{}{
			"flushed": flushed,
		})
	}
	logger.Info("Server stopped successfully")
}
