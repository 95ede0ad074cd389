package db

import (
	"github.com/ikkim/atelier-catalog/internal/app/model"
	"github.com/ikkim/atelier-catalog/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table of the catalog in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.Category{},
		&model.Color{},
		&model.SizeGroup{},
		&model.Size{},
		&model.ParentProduct{},
		&model.Product{},
		&model.Stock{},
		&model.Image{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB runs the migrations against an explicit connection.
func MigrateDB(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := seedSizeGroups(conn); err != nil {
		logger.Error("Failed to seed size groups during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// seedSizeGroups makes sure the two groups the filter sidebar renders exist.
func seedSizeGroups(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&model.SizeGroup{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("Size groups already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	groups := []model.SizeGroup{{Name: "numerical"}, {Name: "literal"}}
	for i := range groups {
		if err := conn.Create(&groups[i]).Error; err != nil {
			logger.Error("Failed to create size group", err, map[string]interface{}{
				"name": groups[i].Name,
			})
			return err
		}
	}

	logger.Info("Size groups seeded successfully", map[string]interface{}{
		"total": len(groups),
	})
	return nil
}
