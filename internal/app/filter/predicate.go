package filter

import (
	"fmt"
	"strings"

	"github.com/ikkim/atelier-catalog/internal/app/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Predicate is a condition over products. Apply renders it as WHERE
// clauses of a query on the products table; Match evaluates it against a
// product already in memory (Stock must be loaded for size predicates).
type Predicate interface {
	Apply(db *gorm.DB) *gorm.DB
	Match(p *model.Product) bool
	String() string
}

// Conjunction is the logical AND of its members. The empty conjunction is
// the identity predicate and matches every product.
type Conjunction []Predicate

// All returns the identity predicate.
func All() Conjunction {
	return Conjunction{}
}

// And intersects predicates, flattening nested conjunctions.
func And(preds ...Predicate) Conjunction {
	out := Conjunction{}
	for _, p := range preds {
		switch v := p.(type) {
		case nil:
		case Conjunction:
			out = append(out, v...)
		default:
			out = append(out, v)
		}
	}
	return out
}

// IsIdentity reports whether p constrains nothing.
func IsIdentity(p Predicate) bool {
	if p == nil {
		return true
	}
	c, ok := p.(Conjunction)
	return ok && len(c) == 0
}

func (c Conjunction) Apply(db *gorm.DB) *gorm.DB {
	for _, p := range c {
		db = p.Apply(db)
	}
	return db
}

func (c Conjunction) Match(p *model.Product) bool {
	for _, pred := range c {
		if !pred.Match(p) {
			return false
		}
	}
	return true
}

func (c Conjunction) String() string {
	if len(c) == 0 {
		return "TRUE"
	}
	parts := make([]string, len(c))
	for i, p := range c {
		parts[i] = p.String()
	}
	return strings.Join(parts, " AND ")
}

// EffectivePriceAtLeast keeps products whose discounted price, or list
// price when not discounted, is >= Value.
type EffectivePriceAtLeast struct {
	Value int64
}

func (f EffectivePriceAtLeast) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(
		"((products.price >= ? AND products.discounted_price IS NULL) OR products.discounted_price >= ?)",
		f.Value, f.Value,
	)
}

func (f EffectivePriceAtLeast) Match(p *model.Product) bool {
	return p.EffectivePrice().GreaterThanOrEqual(decimal.NewFromInt(f.Value))
}

func (f EffectivePriceAtLeast) String() string {
	return fmt.Sprintf("effective_price >= %d", f.Value)
}

// EffectivePriceAtMost is the mirror of EffectivePriceAtLeast.
type EffectivePriceAtMost struct {
	Value int64
}

func (f EffectivePriceAtMost) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(
		"((products.price <= ? AND products.discounted_price IS NULL) OR products.discounted_price <= ?)",
		f.Value, f.Value,
	)
}

func (f EffectivePriceAtMost) Match(p *model.Product) bool {
	return p.EffectivePrice().LessThanOrEqual(decimal.NewFromInt(f.Value))
}

func (f EffectivePriceAtMost) String() string {
	return fmt.Sprintf("effective_price <= %d", f.Value)
}

// Discounted keeps products that currently carry a discounted price.
type Discounted struct{}

func (Discounted) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("products.discounted_price IS NOT NULL")
}

func (Discounted) Match(p *model.Product) bool {
	return p.IsDiscounted()
}

func (Discounted) String() string {
	return "discounted"
}

// ColorIn keeps products whose color is one of IDs.
type ColorIn struct {
	IDs []int64
}

func (f ColorIn) Apply(db *gorm.DB) *gorm.DB {
	if len(f.IDs) == 1 {
		return db.Where("products.color_id = ?", f.IDs[0])
	}
	return db.Where("products.color_id IN ?", f.IDs)
}

func (f ColorIn) Match(p *model.Product) bool {
	if p.ColorID == nil {
		return false
	}
	return containsID(f.IDs, *p.ColorID)
}

func (f ColorIn) String() string {
	return fmt.Sprintf("color IN %v", f.IDs)
}

// InStockSizes keeps products having one stock row whose size is one of
// IDs and whose quantity is positive. Both conditions hold on the same row.
type InStockSizes struct {
	IDs []int64
}

func (f InStockSizes) Apply(db *gorm.DB) *gorm.DB {
	if len(f.IDs) == 1 {
		return db.Where(
			"EXISTS (SELECT 1 FROM stocks WHERE stocks.product_id = products.id AND stocks.size_id = ? AND stocks.quantity > 0)",
			f.IDs[0],
		)
	}
	return db.Where(
		"EXISTS (SELECT 1 FROM stocks WHERE stocks.product_id = products.id AND stocks.size_id IN ? AND stocks.quantity > 0)",
		f.IDs,
	)
}

func (f InStockSizes) Match(p *model.Product) bool {
	for _, s := range p.Stock {
		if s.Quantity > 0 && containsID(f.IDs, s.SizeID) {
			return true
		}
	}
	return false
}

func (f InStockSizes) String() string {
	return fmt.Sprintf("size IN %v with quantity > 0", f.IDs)
}

// Available keeps products with at least one positive stock row. It is not
// reachable from query parameters; listings add it themselves.
type Available struct{}

func (Available) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("EXISTS (SELECT 1 FROM stocks WHERE stocks.product_id = products.id AND stocks.quantity > 0)")
}

func (Available) Match(p *model.Product) bool {
	return p.IsAvailable()
}

func (Available) String() string {
	return "available"
}

func containsID(ids []int64, id uint) bool {
	for _, v := range ids {
		if v == int64(id) {
			return true
		}
	}
	return false
}
