package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/atelier-catalog/internal/app/model"
	"github.com/ikkim/atelier-catalog/pkg/logger"
	redispkg "github.com/ikkim/atelier-catalog/pkg/redis"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCategoryNotFound = errors.New("category not found")

const (
	categoryCachePrefix = "atelier:categories:"
	// maxTreeDepth bounds the recursive queries should a cycle ever slip in.
	maxTreeDepth = 64
)

const descendantsSQL = `
WITH RECURSIVE tree (id, depth) AS (
	SELECT id, 0 FROM categories WHERE id = ?
	UNION ALL
	SELECT c.id, t.depth + 1 FROM categories c JOIN tree t ON c.parent_id = t.id WHERE t.depth < ?
)
SELECT categories.* FROM categories JOIN tree ON tree.id = categories.id
WHERE tree.depth >= ?
ORDER BY tree.depth ASC, categories.id ASC`

const ancestorsSQL = `
WITH RECURSIVE chain (id, parent_id, depth) AS (
	SELECT id, parent_id, 0 FROM categories WHERE id = ?
	UNION ALL
	SELECT c.id, c.parent_id, ch.depth + 1 FROM categories c JOIN chain ch ON c.id = ch.parent_id WHERE ch.depth < ?
)
SELECT categories.* FROM categories JOIN chain ON chain.id = categories.id
WHERE chain.depth >= ?
ORDER BY chain.depth DESC`

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Category, error)
	FindByPathSlug(ctx context.Context, slug string) (*model.Category, error)
	NameExists(ctx context.Context, name string, excludeID uint) (bool, error)
	FindRoots(ctx context.Context) ([]model.Category, error)
	Descendants(ctx context.Context, id uint, includeSelf bool) ([]model.Category, error)
	DescendantIDs(ctx context.Context, id uint) ([]uint, error)
	Ancestors(ctx context.Context, id uint, includeSelf bool) ([]model.Category, error)
	RootAndPathCategories(ctx context.Context, slug string) ([]model.Category, error)
}

type categoryRepository struct {
	db       *gorm.DB
	redis    redis.UniversalClient
	cacheTTL time.Duration
}

// NewCategoryRepository builds the repository. rdb may be nil, in which case
// descendant sets are always read from the database.
func NewCategoryRepository(db *gorm.DB, rdb redis.UniversalClient, cacheTTL time.Duration) CategoryRepository {
	return &categoryRepository{db: db, redis: rdb, cacheTTL: cacheTTL}
}

func descendantsCacheKey(id uint) string {
	return fmt.Sprintf("%sdescendants:%d", categoryCachePrefix, id)
}

// invalidateCache drops every cached category entry. Any write can move a
// subtree, so per-key invalidation would not be enough.
func (r *categoryRepository) invalidateCache(ctx context.Context) {
	if r.redis == nil {
		return
	}
	removed, err := redispkg.DeletePattern(ctx, r.redis, categoryCachePrefix+"*")
	if err != nil {
		logger.Warn("Failed to invalidate category cache", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	logger.Debug("Category cache invalidated", map[string]interface{}{
		"removed_keys": removed,
	})
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	logger.Debug("Creating category in database", map[string]interface{}{
		"name":      category.Name,
		"parent_id": category.ParentID,
	})

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(category).Error; err != nil {
		logger.Error("Failed to create category in database", err, map[string]interface{}{
			"name": category.Name,
		})
		return err
	}

	r.invalidateCache(ctx)
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	logger.Debug("Updating category in database", map[string]interface{}{
		"category_id": category.ID,
		"name":        category.Name,
		"parent_id":   category.ParentID,
	})

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(category).Error; err != nil {
		logger.Error("Failed to update category in database", err, map[string]interface{}{
			"category_id": category.ID,
		})
		return err
	}

	r.invalidateCache(ctx)
	return nil
}

// Delete removes one node. Its children become roots and its parent
// products lose their category; nothing else is deleted.
func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	logger.Debug("Deleting category from database", map[string]interface{}{
		"category_id": id,
	})

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCategoryNotFound
		}
		if err := tx.Model(&model.Category{}).Where("parent_id = ?", id).
			UpdateColumn("parent_id", nil).Error; err != nil {
			return err
		}
		return tx.Model(&model.ParentProduct{}).Where("category_id = ?", id).
			UpdateColumn("category_id", nil).Error
	})
	if err != nil {
		if !errors.Is(err, ErrCategoryNotFound) {
			logger.Error("Failed to delete category from database", err, map[string]interface{}{
				"category_id": id,
			})
		}
		return err
	}

	r.invalidateCache(ctx)
	return nil
}

func (r *categoryRepository) findOne(ctx context.Context, query string, args ...interface{}) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where(query, args...).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uint) (*model.Category, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *categoryRepository) FindByPathSlug(ctx context.Context, slug string) (*model.Category, error) {
	category, err := r.findOne(ctx, "path_slug = ?", slug)
	if err != nil && !errors.Is(err, ErrCategoryNotFound) {
		logger.Error("Failed to find category by path slug", err, map[string]interface{}{
			"path_slug": slug,
		})
	}
	return category, err
}

func (r *categoryRepository) NameExists(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).
		Where("name = ? AND id <> ?", name, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *categoryRepository) FindRoots(ctx context.Context) ([]model.Category, error) {
	var roots []model.Category
	if err := r.db.WithContext(ctx).Where("parent_id IS NULL").Order("id ASC").Find(&roots).Error; err != nil {
		logger.Error("Failed to find root categories", err, nil)
		return nil, err
	}
	return roots, nil
}

func minDepth(includeSelf bool) int {
	if includeSelf {
		return 0
	}
	return 1
}

// Descendants returns the subtree under id, breadth first.
func (r *categoryRepository) Descendants(ctx context.Context, id uint, includeSelf bool) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Raw(descendantsSQL, id, maxTreeDepth, minDepth(includeSelf)).
		Scan(&categories).Error; err != nil {
		logger.Error("Failed to resolve category descendants", err, map[string]interface{}{
			"category_id": id,
		})
		return nil, err
	}
	return categories, nil
}

// DescendantIDs returns the inclusive descendant ids of id, read through
// the Redis cache when one is configured.
func (r *categoryRepository) DescendantIDs(ctx context.Context, id uint) ([]uint, error) {
	key := descendantsCacheKey(id)
	if r.redis != nil {
		if val, err := r.redis.Get(ctx, key).Result(); err == nil {
			var ids []uint
			if err := json.Unmarshal([]byte(val), &ids); err == nil {
				return ids, nil
			}
		} else if err != redis.Nil {
			logger.Warn("Category cache read failed, falling back to database", map[string]interface{}{
				"category_id": id,
				"error":       err.Error(),
			})
		}
	}

	categories, err := r.Descendants(ctx, id, true)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}

	if r.redis != nil {
		if data, err := json.Marshal(ids); err == nil {
			if err := r.redis.Set(ctx, key, data, r.cacheTTL).Err(); err != nil {
				logger.Warn("Failed to cache category descendants", map[string]interface{}{
					"category_id": id,
					"error":       err.Error(),
				})
			}
		}
	}
	return ids, nil
}

// Ancestors returns the chain from the root down to id.
func (r *categoryRepository) Ancestors(ctx context.Context, id uint, includeSelf bool) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Raw(ancestorsSQL, id, maxTreeDepth, minDepth(includeSelf)).
		Scan(&categories).Error; err != nil {
		logger.Error("Failed to resolve category ancestors", err, map[string]interface{}{
			"category_id": id,
		})
		return nil, err
	}
	return categories, nil
}

// RootAndPathCategories returns every root category plus the selected
// node's inclusive subtree, without duplicates, roots first.
func (r *categoryRepository) RootAndPathCategories(ctx context.Context, slug string) ([]model.Category, error) {
	selected, err := r.FindByPathSlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	roots, err := r.FindRoots(ctx)
	if err != nil {
		return nil, err
	}
	subtree, err := r.Descendants(ctx, selected.ID, true)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(roots)+len(subtree))
	result := make([]model.Category, 0, len(roots)+len(subtree))
	for _, group := range [][]model.Category{roots, subtree} {
		for _, c := range group {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			result = append(result, c)
		}
	}
	return result, nil
}
