package controller

import (
	"net/http"
	"testing"

	"github.com/ikkim/atelier-catalog/internal/app/model"
	"github.com/ikkim/atelier-catalog/internal/app/service"
	apperrors "github.com/ikkim/atelier-catalog/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seededCatalog struct {
	dresses, summer *model.Category
	cheap, pricey   *model.Product
	soldOut         *model.Product
}

// seedCatalog creates Dresses > Summer Dresses holding one parent with
// three variants: cheap (50, stocked), pricey (250, stocked) and soldOut.
func seedCatalog(t *testing.T, env *controllerTestEnv) seededCatalog {
	t.Helper()
	var s seededCatalog
	var err error

	s.dresses, err = env.categories.CreateCategory(testCtx, service.CategoryInput{Name: "Dresses"})
	require.NoError(t, err)
	s.summer, err = env.categories.CreateCategory(testCtx, service.CategoryInput{Name: "Summer Dresses", ParentID: &s.dresses.ID})
	require.NoError(t, err)

	_, err = env.admin.CreateSizeGroup(testCtx, "literal")
	require.NoError(t, err)
	small, err := env.admin.CreateSize(testCtx, service.SizeInput{Name: "S", GroupName: "literal"})
	require.NoError(t, err)

	parent, err := env.admin.CreateParentProduct(testCtx, service.ParentProductInput{Name: "Slip Dress", CategoryID: &s.summer.ID})
	require.NoError(t, err)

	create := func(style string, price int64, stocked bool) *model.Product {
		p, err := env.admin.CreateProduct(testCtx, service.ProductInput{
			ParentID:     parent.ID,
			Style:        style,
			Price:        decimal.NewFromInt(price),
			MainImageURL: style + ".jpg",
		})
		require.NoError(t, err)
		if stocked {
			_, err = env.admin.SetStock(testCtx, p.ID, service.StockInput{SizeID: small.ID, Quantity: 1})
			require.NoError(t, err)
		}
		return p
	}
	s.cheap = create("Ivory", 50, true)
	s.pricey = create("Silk", 250, true)
	s.soldOut = create("Rose", 90, false)
	return s
}

type listingResponse struct {
	Products []struct {
		ID   uint   `json:"id"`
		Slug string `json:"slug"`
	} `json:"products"`
	Category       *model.Category    `json:"category"`
	BreadcrumbRoot *model.Category    `json:"breadcrumb_root"`
	OrderBy        string             `json:"order_by"`
	Pagination     service.Pagination `json:"pagination"`
	Facets         struct {
		MaxPrice decimal.Decimal `json:"max_price"`
	} `json:"facets"`
}

func (l listingResponse) ids() []uint {
	ids := make([]uint, len(l.Products))
	for i, p := range l.Products {
		ids[i] = p.ID
	}
	return ids
}

func TestCatalogController_ListProducts(t *testing.T) {
	env := setupControllerTest(t, 24)
	s := seedCatalog(t, env)

	tests := []struct {
		name      string
		query     string
		want      []uint
		wantOrder string
	}{
		{"default", "", []uint{s.cheap.ID, s.pricey.ID}, "popularity"},
		{"price descending", "?order_by=price_descending", []uint{s.pricey.ID, s.cheap.ID}, "price_descending"},
		{"unknown sort falls back", "?order_by=random", []uint{s.cheap.ID, s.pricey.ID}, "popularity"},
		{"price bounds", "?price_gte=100&price_lte=300", []uint{s.pricey.ID}, "popularity"},
		{"invalid bound ignored", "?price_gte=lots", []uint{s.cheap.ID, s.pricey.ID}, "popularity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var listing listingResponse
			decodeBody(t, env.do(t, http.MethodGet, "/api/v1/products"+tt.query, nil), &listing)
			assert.Equal(t, tt.want, listing.ids())
			assert.Equal(t, tt.wantOrder, listing.OrderBy)
		})
	}
}

func TestCatalogController_ListProductsPageOutOfRange(t *testing.T) {
	env := setupControllerTest(t, 1)
	seedCatalog(t, env)

	var listing listingResponse
	decodeBody(t, env.do(t, http.MethodGet, "/api/v1/products?page=2", nil), &listing)
	assert.Equal(t, 2, listing.Pagination.Page)
	assert.True(t, listing.Pagination.HasPrevious)

	w := env.do(t, http.MethodGet, "/api/v1/products?page=3", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.PageNotFound, decodeError(t, w).Error)
}

func TestCatalogController_Categories(t *testing.T) {
	env := setupControllerTest(t, 24)
	s := seedCatalog(t, env)

	var roots struct {
		Categories []model.Category `json:"categories"`
		Count      int              `json:"count"`
	}
	decodeBody(t, env.do(t, http.MethodGet, "/api/v1/categories", nil), &roots)
	require.Equal(t, 1, roots.Count)
	assert.Equal(t, s.dresses.ID, roots.Categories[0].ID)

	var listing listingResponse
	decodeBody(t, env.do(t, http.MethodGet, "/api/v1/categories/dresses/summer-dresses?order_by=price_ascending", nil), &listing)
	assert.Equal(t, []uint{s.cheap.ID, s.pricey.ID}, listing.ids())
	assert.Equal(t, s.summer.ID, listing.Category.ID)
	assert.Equal(t, s.dresses.ID, listing.BreadcrumbRoot.ID)
	assert.True(t, listing.Facets.MaxPrice.Equal(decimal.NewFromInt(250)))

	w := env.do(t, http.MethodGet, "/api/v1/categories/dresses/hats", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.CategoryNotFound, decodeError(t, w).Error)
}

func TestCatalogController_GetProduct(t *testing.T) {
	env := setupControllerTest(t, 24)
	s := seedCatalog(t, env)

	var detail struct {
		Product    model.Product    `json:"product"`
		Variants   []model.Product  `json:"variants"`
		Breadcrumb []model.Category `json:"breadcrumb"`
	}
	decodeBody(t, env.do(t, http.MethodGet, "/api/v1/products/"+s.soldOut.Slug, nil), &detail)
	assert.Equal(t, s.soldOut.ID, detail.Product.ID)
	assert.Len(t, detail.Variants, 3)
	require.Len(t, detail.Breadcrumb, 2)
	assert.Equal(t, "dresses", detail.Breadcrumb[0].PathSlug)
	assert.Equal(t, []uint{s.soldOut.ID}, env.views)

	w := env.do(t, http.MethodGet, "/api/v1/products/no-such-dress", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ProductNotFound, decodeError(t, w).Error)
	assert.Len(t, env.views, 1)
}
