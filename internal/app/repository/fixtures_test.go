package repository

import (
	"context"
	"testing"

	"github.com/ikkim/atelier-catalog/internal/app/model"
	"github.com/ikkim/atelier-catalog/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testCtx = context.Background()

func setupRepositoryTest(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func uintPtr(v uint) *uint {
	return &v
}

// createCategory inserts a category directly, bypassing the repository.
func createCategory(t *testing.T, testDB *gorm.DB, name string, parent *model.Category) *model.Category {
	t.Helper()
	category := &model.Category{Name: name}
	if parent != nil {
		category.ParentID = uintPtr(parent.ID)
	}
	require.NoError(t, testDB.Create(category).Error)
	return category
}

// categoryTree builds:
//
//	Dresses
//	  Summer Dresses
//	    Floral Dresses
//	Shoes
type categoryTree struct {
	dresses, summer, floral, shoes *model.Category
}

func createCategoryTree(t *testing.T, testDB *gorm.DB) categoryTree {
	t.Helper()
	var tree categoryTree
	tree.dresses = createCategory(t, testDB, "Dresses", nil)
	tree.summer = createCategory(t, testDB, "Summer Dresses", tree.dresses)
	tree.floral = createCategory(t, testDB, "Floral Dresses", tree.summer)
	tree.shoes = createCategory(t, testDB, "Shoes", nil)
	return tree
}

type attributeSet struct {
	red, blue *model.Color
	small     *model.Size
	medium    *model.Size
	size38    *model.Size
}

func createAttributes(t *testing.T, testDB *gorm.DB) attributeSet {
	t.Helper()
	literal := &model.SizeGroup{Name: "literal"}
	numerical := &model.SizeGroup{Name: "numerical"}
	require.NoError(t, testDB.Create(numerical).Error)
	require.NoError(t, testDB.Create(literal).Error)

	set := attributeSet{
		red:    &model.Color{Name: "red", HexCode: "#ff0000"},
		blue:   &model.Color{Name: "blue", HexCode: "#0000ff"},
		small:  &model.Size{Name: "S", GroupID: literal.ID},
		medium: &model.Size{Name: "M", GroupID: literal.ID},
		size38: &model.Size{Name: "38", GroupID: numerical.ID},
	}
	for _, v := range []interface{}{set.red, set.blue, set.small, set.medium, set.size38} {
		require.NoError(t, testDB.Create(v).Error)
	}
	return set
}

func createParent(t *testing.T, testDB *gorm.DB, name string, category *model.Category) *model.ParentProduct {
	t.Helper()
	parent := &model.ParentProduct{Name: name}
	if category != nil {
		parent.CategoryID = uintPtr(category.ID)
	}
	require.NoError(t, testDB.Create(parent).Error)
	return parent
}

type productFixture struct {
	style      string
	price      string
	discounted string
	color      *model.Color
	stock      map[*model.Size]int
}

func createProduct(t *testing.T, testDB *gorm.DB, parent *model.ParentProduct, pf productFixture) *model.Product {
	t.Helper()
	product := &model.Product{
		ParentID:     parent.ID,
		Parent:       parent,
		Style:        pf.style,
		Price:        decimal.RequireFromString(pf.price),
		MainImageURL: "https://cdn.example.com/" + pf.style + ".jpg",
	}
	if pf.discounted != "" {
		product.DiscountedPrice = decimal.NewNullDecimal(decimal.RequireFromString(pf.discounted))
	}
	if pf.color != nil {
		product.ColorID = uintPtr(pf.color.ID)
	}
	require.NoError(t, NewProductRepository(testDB).Create(testCtx, product))

	for size, qty := range pf.stock {
		require.NoError(t, testDB.Create(&model.Stock{
			ProductID: product.ID,
			SizeID:    size.ID,
			Quantity:  qty,
		}).Error)
	}
	return product
}
