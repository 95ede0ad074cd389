package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ikkim/atelier-catalog/config"
	"github.com/ikkim/atelier-catalog/internal/app/repository"
	"github.com/ikkim/atelier-catalog/internal/app/service"
	"github.com/ikkim/atelier-catalog/internal/db"
	"github.com/ikkim/atelier-catalog/internal/importer"
	"github.com/ikkim/atelier-catalog/pkg/logger"
	redispkg "github.com/ikkim/atelier-catalog/pkg/redis"
)

func main() {
	os.Exit(run())
}

func run() int {
	yes := flag.Bool("y", false, "import without asking for confirmation")
	flag.Parse()
	if flag.NArg() < 1 {
		log.Fatal("Usage: go run cmd/seed/main.go [-y] <xlsx_file_path>")
	}
	filePath := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Category writes invalidate the cached descendant sets the server
	// reads, so the seeder talks to the same Redis when it can.
	if err := redispkg.Init(&cfg.Redis); err != nil {
		fmt.Println("Redis unavailable, category cache will not be invalidated")
	}
	defer redispkg.Close()

	categoryRepo := repository.NewCategoryRepository(db.GetDB(), redispkg.GetClient(), cfg.Catalog.CategoryCacheTTL)
	productRepo := repository.NewProductRepository(db.GetDB())
	attrRepo := repository.NewAttributeRepository(db.GetDB())
	im := importer.New(
		service.NewCategoryService(categoryRepo),
		service.NewCatalogAdminService(categoryRepo, productRepo, attrRepo),
		categoryRepo,
		attrRepo,
	)

	if !*yes {
		fmt.Printf("Import catalog workbook %s? (yes/no): ", filePath)
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return 0
		}
	}

	report, err := im.ImportFile(context.Background(), filePath)
	if err != nil {
		log.Fatal("Failed to import workbook:", err)
	}

	for _, sheet := range []string{
		importer.SheetCategories,
		importer.SheetColors,
		importer.SheetSizes,
		importer.SheetParentProducts,
		importer.SheetProducts,
	} {
		fmt.Printf("%-16s %d created\n", sheet, report.Created[sheet])
	}
	if len(report.Errors) > 0 {
		fmt.Printf("%d rows rejected:\n", len(report.Errors))
		for _, rowErr := range report.Errors {
			fmt.Println("  " + rowErr.Error())
		}
		return 1
	}
	fmt.Println("Import completed successfully!")
	return 0
}
