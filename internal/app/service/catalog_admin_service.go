package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/atelier-catalog/internal/app/model"
	"github.com/ikkim/atelier-catalog/internal/app/repository"
	"github.com/ikkim/atelier-catalog/pkg/logger"
	"github.com/shopspring/decimal"
)

type ColorInput struct {
	Name    string
	HexCode string
}

type SizeInput struct {
	Name      string
	GroupName string
}

type ParentProductInput struct {
	Name        string
	CategoryID  *uint
	Description string
	FabricInfo  string
	SizesInfo   string
}

type ProductInput struct {
	ParentID        uint
	Style           string
	ColorID         *uint
	Price           decimal.Decimal
	DiscountedPrice decimal.NullDecimal
	MainImageURL    string
}

type PriceInput struct {
	Price           decimal.Decimal
	DiscountedPrice decimal.NullDecimal
}

type StockInput struct {
	SizeID   uint
	Quantity int
}

// CatalogAdminService performs the validated writes behind the staff
// endpoints and the workbook importer. A rejected write persists nothing.
type CatalogAdminService interface {
	CreateColor(ctx context.Context, input ColorInput) (*model.Color, error)
	CreateSizeGroup(ctx context.Context, name string) (*model.SizeGroup, error)
	CreateSize(ctx context.Context, input SizeInput) (*model.Size, error)
	CreateParentProduct(ctx context.Context, input ParentProductInput) (*model.ParentProduct, error)
	DeleteParentProduct(ctx context.Context, id uint) error
	CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error)
	UpdatePrices(ctx context.Context, productID uint, input PriceInput) (*model.Product, error)
	SetStock(ctx context.Context, productID uint, input StockInput) (*model.Stock, error)
	AddImage(ctx context.Context, productID uint, url string) (*model.Image, error)
}

type catalogAdminService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	attrRepo     repository.AttributeRepository
}

func NewCatalogAdminService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	attrRepo repository.AttributeRepository,
) CatalogAdminService {
	return &catalogAdminService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		attrRepo:     attrRepo,
	}
}

func (s *catalogAdminService) CreateColor(ctx context.Context, input ColorInput) (*model.Color, error) {
	color := &model.Color{
		Name:    strings.TrimSpace(input.Name),
		HexCode: strings.TrimSpace(input.HexCode),
	}
	if err := color.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.attrRepo.ColorExists(ctx, color.Name, color.HexCode)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.NewValidationError("name", ErrDuplicateName,
			"a color named %q or with hex code %s already exists", color.Name, color.HexCode)
	}

	if err := s.attrRepo.CreateColor(ctx, color); err != nil {
		return nil, err
	}
	logger.Info("Color created", map[string]interface{}{
		"color_id": color.ID,
		"name":     color.Name,
	})
	return color, nil
}

func (s *catalogAdminService) CreateSizeGroup(ctx context.Context, name string) (*model.SizeGroup, error) {
	group := &model.SizeGroup{Name: strings.TrimSpace(name)}

	_, err := s.attrRepo.FindSizeGroupByName(ctx, group.Name)
	switch {
	case err == nil:
		return nil, model.NewValidationError("name", ErrDuplicateName, "size group %q already exists", group.Name)
	case !errors.Is(err, ErrSizeGroupNotFound):
		return nil, err
	}

	if err := s.attrRepo.CreateSizeGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *catalogAdminService) CreateSize(ctx context.Context, input SizeInput) (*model.Size, error) {
	group, err := s.attrRepo.FindSizeGroupByName(ctx, strings.TrimSpace(input.GroupName))
	if err != nil {
		return nil, err
	}
	size := &model.Size{Name: strings.TrimSpace(input.Name), GroupID: group.ID}

	_, err = s.attrRepo.FindSizeByName(ctx, size.Name)
	switch {
	case err == nil:
		return nil, model.NewValidationError("name", ErrDuplicateName, "size %q already exists", size.Name)
	case !errors.Is(err, ErrSizeNotFound):
		return nil, err
	}

	if err := s.attrRepo.CreateSize(ctx, size); err != nil {
		return nil, err
	}
	return size, nil
}

func (s *catalogAdminService) CreateParentProduct(ctx context.Context, input ParentProductInput) (*model.ParentProduct, error) {
	parent := &model.ParentProduct{
		Name:        strings.TrimSpace(input.Name),
		CategoryID:  input.CategoryID,
		Description: input.Description,
		FabricInfo:  input.FabricInfo,
		SizesInfo:   input.SizesInfo,
	}
	if err := parent.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.productRepo.ParentNameExists(ctx, parent.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.NewValidationError("name", ErrDuplicateName, "parent product %q already exists", parent.Name)
	}
	if parent.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *parent.CategoryID); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.CreateParent(ctx, parent); err != nil {
		return nil, err
	}
	logger.Info("Parent product created", map[string]interface{}{
		"parent_id":   parent.ID,
		"name":        parent.Name,
		"category_id": parent.CategoryID,
	})
	return parent, nil
}

func (s *catalogAdminService) DeleteParentProduct(ctx context.Context, id uint) error {
	if err := s.productRepo.DeleteParent(ctx, id); err != nil {
		return err
	}
	logger.Info("Parent product deleted", map[string]interface{}{
		"parent_id": id,
	})
	return nil
}

// CreateProduct adds a color variant. The slug is derived from the parent
// name and style and never changes afterwards.
func (s *catalogAdminService) CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error) {
	parent, err := s.productRepo.FindParentByID(ctx, input.ParentID)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		ParentID:        parent.ID,
		Parent:          parent,
		Style:           strings.TrimSpace(input.Style),
		ColorID:         input.ColorID,
		Price:           input.Price,
		DiscountedPrice: input.DiscountedPrice,
		MainImageURL:    strings.TrimSpace(input.MainImageURL),
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.productRepo.StyleExists(ctx, parent.ID, product.Style)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.NewValidationError("style", ErrDuplicateStyle,
			"%q already has a %q variant", parent.Name, product.Style)
	}

	product.Slug = model.BuildProductSlug(parent.Name, product.Style)
	_, err = s.productRepo.FindBySlug(ctx, product.Slug)
	switch {
	case err == nil:
		return nil, model.NewValidationError("style", ErrDuplicateSlug, "slug %q is already in use", product.Slug)
	case !errors.Is(err, ErrProductNotFound):
		return nil, err
	}

	if product.ColorID != nil {
		if _, err := s.attrRepo.FindColorByID(ctx, *product.ColorID); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	})
	return product, nil
}

func (s *catalogAdminService) UpdatePrices(ctx context.Context, productID uint, input PriceInput) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	product.Price = input.Price
	product.DiscountedPrice = input.DiscountedPrice
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	logger.Info("Product prices updated", map[string]interface{}{
		"product_id":       product.ID,
		"price":            product.Price.StringFixed(2),
		"discounted_price": product.DiscountedPrice,
	})
	return product, nil
}

func (s *catalogAdminService) SetStock(ctx context.Context, productID uint, input StockInput) (*model.Stock, error) {
	if input.Quantity < 0 {
		return nil, model.NewValidationError("quantity", model.ErrInvalidQuantity,
			"quantity must not be negative, got %d", input.Quantity)
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	size, err := s.attrRepo.FindSizeByID(ctx, input.SizeID)
	if err != nil {
		return nil, err
	}

	stock := &model.Stock{ProductID: productID, SizeID: size.ID, Quantity: input.Quantity}
	if err := s.productRepo.SetStock(ctx, stock); err != nil {
		return nil, err
	}
	stock.Size = size
	return stock, nil
}

func (s *catalogAdminService) AddImage(ctx context.Context, productID uint, url string) (*model.Image, error) {
	image := &model.Image{ProductID: productID, URL: strings.TrimSpace(url)}
	if err := image.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	if err := s.productRepo.AddImage(ctx, image); err != nil {
		return nil, err
	}
	return image, nil
}
