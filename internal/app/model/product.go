package model

import (
	"fmt"
	"time"

	"github.com/ikkim/atelier-catalog/pkg/util"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ParentProductNameMaxLength = 30
	StyleMaxLength             = 15
)

// ParentProduct groups the color variants of one garment and holds the
// descriptive text they share. It is never sold directly.
type ParentProduct struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	Name        string    `gorm:"size:30;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	FabricInfo  string    `gorm:"type:text" json:"fabric_info,omitempty"`
	SizesInfo   string    `gorm:"type:text" json:"sizes_info,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Products []Product `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ParentProduct) TableName() string {
	return "parent_products"
}

func (p *ParentProduct) Validate() error {
	return requireName("name", p.Name, ParentProductNameMaxLength)
}

func (p *ParentProduct) BeforeSave(tx *gorm.DB) error {
	return p.Validate()
}

// Product is a sellable color variant of a ParentProduct.
type Product struct {
	ID              uint                `gorm:"primarykey" json:"id"`
	ParentID        uint                `gorm:"not null;uniqueIndex:idx_parent_style" json:"parent_id"`
	Style           string              `gorm:"size:15;not null;uniqueIndex:idx_parent_style" json:"style"`
	ColorID         *uint               `gorm:"index" json:"color_id"`
	Price           decimal.Decimal     `gorm:"type:numeric(8,2);not null" json:"price"`
	DiscountedPrice decimal.NullDecimal `gorm:"type:numeric(8,2)" json:"discounted_price"`
	Slug            string              `gorm:"<-:create;size:192;not null;uniqueIndex" json:"slug"`
	MainImageURL    string              `gorm:"not null" json:"main_image_url"`
	Views           int64               `gorm:"not null;default:0" json:"views"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`

	Parent *ParentProduct `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Color  *Color         `gorm:"foreignKey:ColorID;constraint:OnDelete:SET NULL" json:"color,omitempty"`
	Stock  []Stock        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"stock,omitempty"`
	Images []Image        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// BuildProductSlug derives the product slug from its parent name and style.
func BuildProductSlug(parentName, style string) string {
	return util.Slugify(fmt.Sprintf("%s %s", parentName, style))
}

// Name is "<parent name> - <style>"; the parent must be loaded.
func (p *Product) Name() string {
	if p.Parent == nil {
		return p.Style
	}
	return fmt.Sprintf("%s - %s", p.Parent.Name, p.Style)
}

// EffectivePrice is the discounted price when set, else the list price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.IsDiscounted() {
		return p.DiscountedPrice.Decimal
	}
	return p.Price
}

func (p *Product) IsDiscounted() bool {
	return p.DiscountedPrice.Valid
}

// IsAvailable needs Stock loaded.
func (p *Product) IsAvailable() bool {
	for _, s := range p.Stock {
		if s.Quantity > 0 {
			return true
		}
	}
	return false
}

// Validate checks the field-level invariants of a product write.
func (p *Product) Validate() error {
	if err := requireName("style", p.Style, StyleMaxLength); err != nil {
		return err
	}
	if p.MainImageURL == "" {
		return NewValidationError("main_image_url", ErrFieldRequired, "main image is required")
	}
	if !p.Price.IsPositive() {
		return NewValidationError("price", ErrInvalidPrice, "price must be positive, got %s", p.Price)
	}
	if p.DiscountedPrice.Valid {
		if p.DiscountedPrice.Decimal.IsNegative() || p.DiscountedPrice.Decimal.GreaterThanOrEqual(p.Price) {
			return NewValidationError("discounted_price", ErrInvalidDiscountedPrice,
				"discounted price (%s) must be lower than price (%s)",
				p.DiscountedPrice.Decimal.StringFixed(2), p.Price.StringFixed(2))
		}
	}
	return nil
}

func (p *Product) BeforeSave(tx *gorm.DB) error {
	return p.Validate()
}

// BeforeCreate fills the slug from the loaded parent when the caller did
// not. The slug column is create-only, so it never changes afterwards.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.Slug == "" && p.Parent != nil {
		p.Slug = BuildProductSlug(p.Parent.Name, p.Style)
	}
	if p.Slug == "" {
		return NewValidationError("slug", ErrFieldRequired, "slug could not be derived, parent not loaded")
	}
	return nil
}

// Stock links a product to a size with the quantity on hand.
type Stock struct {
	ID        uint `gorm:"primarykey" json:"id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_stock_product_size" json:"product_id"`
	SizeID    uint `gorm:"not null;uniqueIndex:idx_stock_product_size;index" json:"size_id"`
	Quantity  int  `gorm:"not null;default:0" json:"quantity"`

	Size *Size `gorm:"foreignKey:SizeID;constraint:OnDelete:CASCADE" json:"size,omitempty"`
}

func (Stock) TableName() string {
	return "stocks"
}

func (s *Stock) BeforeSave(tx *gorm.DB) error {
	if s.Quantity < 0 {
		return NewValidationError("quantity", ErrInvalidQuantity, "quantity must not be negative, got %d", s.Quantity)
	}
	return nil
}

type Image struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	URL       string    `gorm:"not null" json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func (Image) TableName() string {
	return "images"
}

func (i *Image) Validate() error {
	if i.URL == "" {
		return NewValidationError("url", ErrFieldRequired, "image url is required")
	}
	return nil
}

func (i *Image) BeforeSave(tx *gorm.DB) error {
	return i.Validate()
}
