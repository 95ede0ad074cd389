package importer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ikkim/atelier-catalog/internal/app/model"
	"github.com/ikkim/atelier-catalog/internal/app/repository"
	"github.com/ikkim/atelier-catalog/internal/app/service"
	"github.com/ikkim/atelier-catalog/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testCtx = context.Background()

type importerEnv struct {
	importer   *Importer
	categories repository.CategoryRepository
	products   repository.ProductRepository
}

func setupImporter(t *testing.T) importerEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	categoryRepo := repository.NewCategoryRepository(testDB, nil, time.Minute)
	productRepo := repository.NewProductRepository(testDB)
	attrRepo := repository.NewAttributeRepository(testDB)
	categories := service.NewCategoryService(categoryRepo)
	admin := service.NewCatalogAdminService(categoryRepo, productRepo, attrRepo)

	return importerEnv{
		importer:   New(categories, admin, categoryRepo, attrRepo),
		categories: categoryRepo,
		products:   productRepo,
	}
}

// workbook builds an .xlsx in memory; each sheet is a header row followed
// by data rows.
func workbook(t *testing.T, sheets map[string][][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, values := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &values))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImporter_FullWorkbook(t *testing.T) {
	env := setupImporter(t)
	buf := workbook(t, map[string][][]interface{}{
		SheetCategories: {
			{"name", "parent"},
			{"Dresses", ""},
			{"Summer Dresses", "Dresses"},
		},
		SheetColors: {
			{"name", "hex_code"},
			{"Yellow", "#ffff00"},
		},
		SheetSizes: {
			{"name", "group"},
			{"S", "literal"},
			{"M", "literal"},
			{"38", "numerical"},
		},
		SheetParentProducts: {
			{"name", "category", "description", "fabric_info", "sizes_info"},
			{"Sun Dress", "Summer Dresses", "Light and airy", "Cotton", "Runs small"},
		},
		SheetProducts: {
			{"parent", "style", "color", "price", "discounted_price", "main_image_url", "stock", "images"},
			{"Sun Dress", "Yellow", "yellow", "120", "99.50", "yellow.jpg", "S:2, M:0", "yellow-back.jpg, yellow-side.jpg"},
			{"Sun Dress", "White", "", "110", "", "white.jpg", "", ""},
		},
	})

	report, err := env.importer.Import(testCtx, buf)
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
	assert.Equal(t, map[string]int{
		SheetCategories:     2,
		SheetColors:         1,
		SheetSizes:          3,
		SheetParentProducts: 1,
		SheetProducts:       2,
	}, report.Created)

	summer, err := env.categories.FindByPathSlug(testCtx, "summer-dresses")
	require.NoError(t, err)
	require.NotNil(t, summer.ParentID)

	yellow, err := env.products.FindBySlug(testCtx, "sun-dress-yellow")
	require.NoError(t, err)
	assert.True(t, yellow.IsAvailable())
	assert.True(t, yellow.IsDiscounted())
	assert.Equal(t, "99.5", yellow.DiscountedPrice.Decimal.String())
	assert.Len(t, yellow.Stock, 2)
	assert.Len(t, yellow.Images, 2)
	require.NotNil(t, yellow.Color)
	assert.Equal(t, "Yellow", yellow.Color.Name)

	white, err := env.products.FindBySlug(testCtx, "sun-dress-white")
	require.NoError(t, err)
	assert.False(t, white.IsAvailable())
}

func TestImporter_BadRowsAreReported(t *testing.T) {
	env := setupImporter(t)
	buf := workbook(t, map[string][][]interface{}{
		SheetColors: {
			{"name", "hex_code"},
			{"Red", "#ff0000"},
			{"Blue", "blue"},
		},
		SheetSizes: {
			{"name", "group"},
			{"S", "literal"},
		},
		SheetParentProducts: {
			{"name"},
			{"Blazer"},
			{"Blazer"},
		},
		SheetProducts: {
			{"parent", "style", "price", "discounted_price", "main_image_url", "stock"},
			{"Blazer", "Black", "300", "350", "black.jpg", ""},
			{"Blazer", "Grey", "three hundred", "", "grey.jpg", ""},
			{"Cape", "Green", "300", "", "green.jpg", ""},
			{"Blazer", "Navy", "300", "", "navy.jpg", "XXL:1"},
			{"Blazer", "Tan", "300", "", "tan.jpg", "S:-1"},
			{"Blazer", "Olive", "300", "", "olive.jpg", "S:4"},
		},
	})

	report, err := env.importer.Import(testCtx, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created[SheetColors])
	assert.Equal(t, 1, report.Created[SheetParentProducts])
	assert.Equal(t, 1, report.Created[SheetProducts])

	type failure struct {
		sheet string
		row   int
		kind  error
	}
	want := []failure{
		{SheetColors, 3, model.ErrInvalidHexCode},
		{SheetParentProducts, 3, service.ErrDuplicateName},
		{SheetProducts, 2, model.ErrInvalidDiscountedPrice},
		{SheetProducts, 3, model.ErrInvalidPrice},
		{SheetProducts, 4, repository.ErrParentProductNotFound},
		{SheetProducts, 5, repository.ErrSizeNotFound},
		{SheetProducts, 6, model.ErrInvalidQuantity},
	}
	require.Len(t, report.Errors, len(want))
	for i, w := range want {
		assert.Equal(t, w.sheet, report.Errors[i].Sheet)
		assert.Equal(t, w.row, report.Errors[i].Row)
		assert.ErrorIs(t, report.Errors[i], w.kind)
	}

	_, err = env.products.FindBySlug(testCtx, "blazer-navy")
	assert.ErrorIs(t, err, repository.ErrProductNotFound, "unknown size rejects the row before the product is created")
}

func TestImporter_MissingColumn(t *testing.T) {
	env := setupImporter(t)
	buf := workbook(t, map[string][][]interface{}{
		SheetColors: {
			{"name"},
			{"Red"},
		},
	})

	_, err := env.importer.Import(testCtx, buf)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseStock(t *testing.T) {
	tests := []struct {
		raw     string
		want    map[string]int
		wantErr bool
	}{
		{"", map[string]int{}, false},
		{"S:3", map[string]int{"S": 3}, false},
		{" S : 3 , M:0 ", map[string]int{"S": 3, "M": 0}, false},
		{"S", nil, true},
		{"S:x", nil, true},
		{"S:-2", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseStock(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrInvalidQuantity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
