package repository

import (
	"context"
	"errors"

	"github.com/ikkim/atelier-catalog/internal/app/model"
	"github.com/ikkim/atelier-catalog/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrColorNotFound     = errors.New("color not found")
	ErrSizeNotFound      = errors.New("size not found")
	ErrSizeGroupNotFound = errors.New("size group not found")
)

// AttributeRepository stores the filterable product attributes: colors and
// grouped sizes.
type AttributeRepository interface {
	CreateColor(ctx context.Context, color *model.Color) error
	FindColorByID(ctx context.Context, id uint) (*model.Color, error)
	ColorExists(ctx context.Context, name, hexCode string) (bool, error)
	ListColors(ctx context.Context) ([]model.Color, error)

	CreateSizeGroup(ctx context.Context, group *model.SizeGroup) error
	FindSizeGroupByName(ctx context.Context, name string) (*model.SizeGroup, error)
	ListSizeGroups(ctx context.Context) ([]model.SizeGroup, error)

	CreateSize(ctx context.Context, size *model.Size) error
	FindSizeByID(ctx context.Context, id uint) (*model.Size, error)
	FindSizeByName(ctx context.Context, name string) (*model.Size, error)
}

type attributeRepository struct {
	db *gorm.DB
}

func NewAttributeRepository(db *gorm.DB) AttributeRepository {
	return &attributeRepository{db: db}
}

func (r *attributeRepository) create(ctx context.Context, kind string, value interface{}) error {
	if err := r.db.WithContext(ctx).Create(value).Error; err != nil {
		logger.Error("Failed to create attribute in database", err, map[string]interface{}{
			"kind": kind,
		})
		return err
	}
	return nil
}

func (r *attributeRepository) first(ctx context.Context, dest interface{}, notFound error, query string, args ...interface{}) error {
	if err := r.db.WithContext(ctx).Where(query, args...).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound
		}
		return err
	}
	return nil
}

func (r *attributeRepository) CreateColor(ctx context.Context, color *model.Color) error {
	return r.create(ctx, "color", color)
}

func (r *attributeRepository) FindColorByID(ctx context.Context, id uint) (*model.Color, error) {
	var color model.Color
	if err := r.first(ctx, &color, ErrColorNotFound, "id = ?", id); err != nil {
		return nil, err
	}
	return &color, nil
}

// ColorExists reports whether a color already uses the name or the hex code.
func (r *attributeRepository) ColorExists(ctx context.Context, name, hexCode string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Color{}).
		Where("name = ? OR hex_code = ?", name, hexCode).
		Count(&count).Error
	return count > 0, err
}

func (r *attributeRepository) ListColors(ctx context.Context) ([]model.Color, error) {
	var colors []model.Color
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&colors).Error; err != nil {
		logger.Error("Failed to list colors", err, nil)
		return nil, err
	}
	return colors, nil
}

func (r *attributeRepository) CreateSizeGroup(ctx context.Context, group *model.SizeGroup) error {
	return r.create(ctx, "size_group", group)
}

func (r *attributeRepository) FindSizeGroupByName(ctx context.Context, name string) (*model.SizeGroup, error) {
	var group model.SizeGroup
	if err := r.first(ctx, &group, ErrSizeGroupNotFound, "name = ?", name); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListSizeGroups returns every group with its sizes in display order.
func (r *attributeRepository) ListSizeGroups(ctx context.Context) ([]model.SizeGroup, error) {
	var groups []model.SizeGroup
	err := r.db.WithContext(ctx).
		Preload("Sizes", func(tx *gorm.DB) *gorm.DB {
			return tx.Order(model.SizeOrder)
		}).
		Order("id ASC").
		Find(&groups).Error
	if err != nil {
		logger.Error("Failed to list size groups", err, nil)
		return nil, err
	}
	return groups, nil
}

func (r *attributeRepository) CreateSize(ctx context.Context, size *model.Size) error {
	return r.create(ctx, "size", size)
}

func (r *attributeRepository) FindSizeByID(ctx context.Context, id uint) (*model.Size, error) {
	var size model.Size
	if err := r.first(ctx, &size, ErrSizeNotFound, "id = ?", id); err != nil {
		return nil, err
	}
	return &size, nil
}

func (r *attributeRepository) FindSizeByName(ctx context.Context, name string) (*model.Size, error) {
	var size model.Size
	if err := r.first(ctx, &size, ErrSizeNotFound, "name = ?", name); err != nil {
		return nil, err
	}
	return &size, nil
}
