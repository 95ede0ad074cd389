package repository

import (
	"context"
	"errors"

	"github.com/ikkim/atelier-catalog/internal/app/filter"
	"github.com/ikkim/atelier-catalog/internal/app/model"
	"github.com/ikkim/atelier-catalog/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProductNotFound       = errors.New("product not found")
	ErrParentProductNotFound = errors.New("parent product not found")
)

type ProductSort string

const (
	// Popularity lists the least viewed products first.
	ProductSortPopularity ProductSort = "popularity"
	ProductSortPriceAsc   ProductSort = "price_ascending"
	ProductSortPriceDesc  ProductSort = "price_descending"
	ProductSortNewest     ProductSort = "newest"
)

const effectivePriceExpr = "COALESCE(products.discounted_price, products.price)"

// orderClause maps a sort to its ORDER BY. Unknown sorts fall back to
// popularity, which lists the least viewed products first.
func (s ProductSort) orderClause() string {
	switch s {
	case ProductSortPriceAsc:
		return effectivePriceExpr + " ASC, products.id ASC"
	case ProductSortPriceDesc:
		return effectivePriceExpr + " DESC, products.id DESC"
	case ProductSortNewest:
		return "products.id DESC"
	default:
		return "products.views ASC, products.id ASC"
	}
}

type ProductFilter struct {
	// CategoryIDs scopes the listing to parents in these categories; nil
	// means the whole catalog.
	CategoryIDs   []uint
	Predicate     filter.Predicate
	AvailableOnly bool
	SortBy        ProductSort
	Limit         int
	Offset        int
}

type ProductRepository interface {
	CreateParent(ctx context.Context, parent *model.ParentProduct) error
	FindParentByID(ctx context.Context, id uint) (*model.ParentProduct, error)
	ParentNameExists(ctx context.Context, name string) (bool, error)
	DeleteParent(ctx context.Context, id uint) error

	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindBySlug(ctx context.Context, slug string) (*model.Product, error)
	FindVariants(ctx context.Context, parentID uint) ([]model.Product, error)
	StyleExists(ctx context.Context, parentID uint, style string) (bool, error)
	FindWithFilter(ctx context.Context, f ProductFilter) ([]model.Product, int64, error)
	MaxAvailablePrice(ctx context.Context) (decimal.NullDecimal, error)

	GetViews(ctx context.Context, id uint) (int64, error)
	UpdateViews(ctx context.Context, id uint, views int64) error
	SetStock(ctx context.Context, stock *model.Stock) error
	AddImage(ctx context.Context, image *model.Image) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func withProductDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Parent").
		Preload("Color").
		Preload("Stock", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("stocks.*").
				Joins("JOIN sizes ON sizes.id = stocks.size_id").
				Order("sizes.group_id ASC, sizes.id ASC")
		}).
		Preload("Stock.Size").
		Preload("Images", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("images.id ASC")
		})
}

func (r *productRepository) CreateParent(ctx context.Context, parent *model.ParentProduct) error {
	logger.Debug("Creating parent product in database", map[string]interface{}{
		"name":        parent.Name,
		"category_id": parent.CategoryID,
	})

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(parent).Error; err != nil {
		logger.Error("Failed to create parent product in database", err, map[string]interface{}{
			"name": parent.Name,
		})
		return err
	}
	return nil
}

func (r *productRepository) FindParentByID(ctx context.Context, id uint) (*model.ParentProduct, error) {
	var parent model.ParentProduct
	if err := r.db.WithContext(ctx).First(&parent, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParentProductNotFound
		}
		logger.Error("Failed to find parent product", err, map[string]interface{}{
			"parent_id": id,
		})
		return nil, err
	}
	return &parent, nil
}

func (r *productRepository) ParentNameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ParentProduct{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// DeleteParent removes a parent product together with its variants and
// their stock and image rows.
func (r *productRepository) DeleteParent(ctx context.Context, id uint) error {
	logger.Debug("Deleting parent product from database", map[string]interface{}{
		"parent_id": id,
	})

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		variants := tx.Model(&model.Product{}).Select("id").Where("parent_id = ?", id)
		if err := tx.Where("product_id IN (?)", variants).Delete(&model.Stock{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id IN (?)", variants).Delete(&model.Image{}).Error; err != nil {
			return err
		}
		if err := tx.Where("parent_id = ?", id).Delete(&model.Product{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.ParentProduct{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrParentProductNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrParentProductNotFound) {
		logger.Error("Failed to delete parent product from database", err, map[string]interface{}{
			"parent_id": id,
		})
	}
	return err
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"parent_id": product.ParentID,
		"style":     product.Style,
		"color_id":  product.ColorID,
	})

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"parent_id": product.ParentID,
			"style":     product.Style,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	})
	return nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
	})

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

func (r *productRepository) findOne(ctx context.Context, query string, args ...interface{}) (*model.Product, error) {
	var product model.Product
	err := withProductDetails(r.db.WithContext(ctx)).Where(query, args...).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to find product", err, map[string]interface{}{
			"query": query,
			"args":  args,
		})
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	return r.findOne(ctx, "products.id = ?", id)
}

func (r *productRepository) FindBySlug(ctx context.Context, slug string) (*model.Product, error) {
	return r.findOne(ctx, "products.slug = ?", slug)
}

// FindVariants returns every variant of a parent product, regardless of
// stock.
func (r *productRepository) FindVariants(ctx context.Context, parentID uint) ([]model.Product, error) {
	var variants []model.Product
	err := withProductDetails(r.db.WithContext(ctx)).
		Where("products.parent_id = ?", parentID).
		Order("products.id ASC").
		Find(&variants).Error
	if err != nil {
		logger.Error("Failed to find product variants", err, map[string]interface{}{
			"parent_id": parentID,
		})
		return nil, err
	}
	return variants, nil
}

func (r *productRepository) StyleExists(ctx context.Context, parentID uint, style string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("parent_id = ? AND style = ?", parentID, style).
		Count(&count).Error
	return count > 0, err
}

func (r *productRepository) FindWithFilter(ctx context.Context, f ProductFilter) ([]model.Product, int64, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"category_ids":   f.CategoryIDs,
		"predicate":      describePredicate(f.Predicate),
		"available_only": f.AvailableOnly,
		"sort_by":        f.SortBy,
		"limit":          f.Limit,
		"offset":         f.Offset,
	})

	query := r.db.WithContext(ctx).Model(&model.Product{})

	if f.CategoryIDs != nil {
		parents := r.db.Model(&model.ParentProduct{}).Select("id").Where("category_id IN ?", f.CategoryIDs)
		query = query.Where("products.parent_id IN (?)", parents)
	}

	pred := f.Predicate
	if f.AvailableOnly {
		pred = filter.And(filter.Available{}, pred)
	}
	if pred != nil {
		query = pred.Apply(query)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count filtered products", err, nil)
		return nil, 0, err
	}

	query = withProductDetails(query).Order(f.SortBy.orderClause())
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}

	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		logger.Error("Failed to find products with filter", err, map[string]interface{}{
			"sort_by": f.SortBy,
		})
		return nil, 0, err
	}

	logger.Debug("Products found with filter", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

func describePredicate(p filter.Predicate) string {
	if p == nil {
		return filter.All().String()
	}
	return p.String()
}

// MaxAvailablePrice returns the highest list price among products that
// have stock. It is invalid when nothing is available.
func (r *productRepository) MaxAvailablePrice(ctx context.Context) (decimal.NullDecimal, error) {
	var max decimal.NullDecimal
	query := filter.Available{}.Apply(r.db.WithContext(ctx).Model(&model.Product{}))
	if err := query.Select("MAX(products.price)").Row().Scan(&max); err != nil {
		logger.Error("Failed to compute max available price", err, nil)
		return decimal.NullDecimal{}, err
	}
	return max, nil
}

func (r *productRepository) GetViews(ctx context.Context, id uint) (int64, error) {
	var views []int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Pluck("views", &views).Error; err != nil {
		return 0, err
	}
	if len(views) == 0 {
		return 0, ErrProductNotFound
	}
	return views[0], nil
}

// UpdateViews overwrites the durable view count. Hooks are skipped since
// only one column changes.
func (r *productRepository) UpdateViews(ctx context.Context, id uint, views int64) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).UpdateColumn("views", views)
	if res.Error != nil {
		logger.Error("Failed to persist product views", res.Error, map[string]interface{}{
			"product_id": id,
			"views":      views,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// SetStock upserts the quantity for a (product, size) pair.
func (r *productRepository) SetStock(ctx context.Context, stock *model.Stock) error {
	logger.Debug("Setting product stock", map[string]interface{}{
		"product_id": stock.ProductID,
		"size_id":    stock.SizeID,
		"quantity":   stock.Quantity,
	})

	err := r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "size_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity"}),
	}).Create(stock).Error
	if err != nil {
		logger.Error("Failed to set product stock", err, map[string]interface{}{
			"product_id": stock.ProductID,
			"size_id":    stock.SizeID,
		})
		return err
	}
	return nil
}

func (r *productRepository) AddImage(ctx context.Context, image *model.Image) error {
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		logger.Error("Failed to add product image", err, map[string]interface{}{
			"product_id": image.ProductID,
		})
		return err
	}
	return nil
}
