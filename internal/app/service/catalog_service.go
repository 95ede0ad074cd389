package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/ikkim/atelier-catalog/internal/app/filter"
	"github.com/ikkim/atelier-catalog/internal/app/model"
	"github.com/ikkim/atelier-catalog/internal/app/repository"
	"github.com/ikkim/atelier-catalog/internal/session"
	"github.com/ikkim/atelier-catalog/pkg/logger"
	"github.com/shopspring/decimal"
)

// DefaultMaxPrice is reported when no product is available.
var DefaultMaxPrice = decimal.NewFromInt(99999)

type ListOptions struct {
	// CategoryPath scopes the listing; empty lists the whole catalog.
	CategoryPath string
	Params       map[string][]string
	OrderBy      string
	// Page is the raw page parameter; anything unparsable or below 1 is 1.
	Page string
}

type Pagination struct {
	Page        int   `json:"page"`
	PageSize    int   `json:"page_size"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// Facets feed the filter sidebar.
type Facets struct {
	Categories []model.Category  `json:"categories"`
	Colors     []model.Color     `json:"colors"`
	SizeGroups []model.SizeGroup `json:"size_groups"`
	MaxPrice   decimal.Decimal   `json:"max_price"`
}

type ProductListing struct {
	Products       []model.Product        `json:"products"`
	Category       *model.Category        `json:"category,omitempty"`
	BreadcrumbRoot *model.Category        `json:"breadcrumb_root,omitempty"`
	OrderBy        repository.ProductSort `json:"order_by"`
	Filter         string                 `json:"filter"`
	Pagination     Pagination             `json:"pagination"`
	Facets         Facets                 `json:"facets"`
}

// ProductDetail is a product page. Variants holds every color of the
// parent, the viewed one included.
type ProductDetail struct {
	Product    *model.Product   `json:"product"`
	Variants   []model.Product  `json:"variants"`
	Breadcrumb []model.Category `json:"breadcrumb"`
}

type CatalogService interface {
	ListProducts(ctx context.Context, opts ListOptions) (*ProductListing, error)
	GetProductDetail(ctx context.Context, slug string, sess *session.Session) (*ProductDetail, error)
}

type catalogService struct {
	categories   CategoryService
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	attrRepo     repository.AttributeRepository
	viewed       *ProductViewedSignal
	pageSize     int
}

func NewCatalogService(
	categories CategoryService,
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	attrRepo repository.AttributeRepository,
	viewed *ProductViewedSignal,
	pageSize int,
) CatalogService {
	return &catalogService{
		categories:   categories,
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		attrRepo:     attrRepo,
		viewed:       viewed,
		pageSize:     pageSize,
	}
}

// ParseSort maps an order_by value to a sort, defaulting to popularity.
func ParseSort(raw string) repository.ProductSort {
	switch sort := repository.ProductSort(strings.TrimSpace(raw)); sort {
	case repository.ProductSortPriceAsc, repository.ProductSortPriceDesc, repository.ProductSortNewest:
		return sort
	default:
		return repository.ProductSortPopularity
	}
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func (s *catalogService) ListProducts(ctx context.Context, opts ListOptions) (*ProductListing, error) {
	pred := filter.Build(opts.Params)
	listing := &ProductListing{
		OrderBy: ParseSort(opts.OrderBy),
		Filter:  pred.String(),
	}

	query := repository.ProductFilter{
		Predicate:     pred,
		AvailableOnly: true,
		SortBy:        listing.OrderBy,
	}

	if opts.CategoryPath != "" {
		resolved, err := s.categories.ResolvePath(ctx, opts.CategoryPath)
		if err != nil {
			return nil, err
		}
		listing.Category = resolved.Selected
		listing.BreadcrumbRoot = resolved.BreadcrumbRoot

		ids, err := s.categoryRepo.DescendantIDs(ctx, resolved.Selected.ID)
		if err != nil {
			return nil, err
		}
		query.CategoryIDs = ids
	}

	page := parsePage(opts.Page)
	query.Limit = s.pageSize
	query.Offset = (page - 1) * s.pageSize

	products, total, err := s.productRepo.FindWithFilter(ctx, query)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(s.pageSize) - 1) / int64(s.pageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		logger.Debug("Requested page beyond last page", map[string]interface{}{
			"page":        page,
			"total_pages": totalPages,
		})
		return nil, ErrPageOutOfRange
	}

	listing.Products = products
	listing.Pagination = Pagination{
		Page:        page,
		PageSize:    s.pageSize,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}

	facets, err := s.facets(ctx, listing.BreadcrumbRoot)
	if err != nil {
		return nil, err
	}
	listing.Facets = *facets

	logger.Debug("Products listed", map[string]interface{}{
		"category": opts.CategoryPath,
		"filter":   listing.Filter,
		"order_by": listing.OrderBy,
		"page":     page,
		"count":    len(products),
		"total":    total,
	})
	return listing, nil
}

// facets lists the roots plus the subtree of root, the category named by
// the first path segment, so the sidebar keeps the whole branch open.
func (s *catalogService) facets(ctx context.Context, root *model.Category) (*Facets, error) {
	var (
		facets Facets
		err    error
	)
	if root != nil {
		facets.Categories, err = s.categoryRepo.RootAndPathCategories(ctx, root.PathSlug)
	} else {
		facets.Categories, err = s.categoryRepo.FindRoots(ctx)
	}
	if err != nil {
		return nil, err
	}

	if facets.Colors, err = s.attrRepo.ListColors(ctx); err != nil {
		return nil, err
	}
	if facets.SizeGroups, err = s.attrRepo.ListSizeGroups(ctx); err != nil {
		return nil, err
	}

	max, err := s.productRepo.MaxAvailablePrice(ctx)
	if err != nil {
		return nil, err
	}
	facets.MaxPrice = DefaultMaxPrice
	if max.Valid {
		facets.MaxPrice = max.Decimal
	}
	return &facets, nil
}

// GetProductDetail returns a product whether or not it is in stock,
// together with the other variants of its parent, and announces the view.
func (s *catalogService) GetProductDetail(ctx context.Context, slug string, sess *session.Session) (*ProductDetail, error) {
	product, err := s.productRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	variants, err := s.productRepo.FindVariants(ctx, product.ParentID)
	if err != nil {
		return nil, err
	}

	detail := &ProductDetail{Product: product, Variants: variants, Breadcrumb: []model.Category{}}
	if product.Parent != nil && product.Parent.CategoryID != nil {
		chain, err := s.categoryRepo.Ancestors(ctx, *product.Parent.CategoryID, true)
		if err != nil {
			return nil, err
		}
		detail.Breadcrumb = chain
	}

	if err := s.viewed.Send(ctx, ProductViewed{Session: sess, Product: product}); err != nil {
		logger.Error("Failed to record product view", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return nil, err
	}
	return detail, nil
}
