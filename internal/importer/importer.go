// Package importer loads a catalog workbook (.xlsx) through the admin
// services, so every row passes the same validation as the staff API.
//
// Sheets are read in dependency order and each is optional:
//
//	categories       name, parent
//	colors           name, hex_code
//	sizes            name, group
//	parent_products  name, category, description, fabric_info, sizes_info
//	products         parent, style, color, price, discounted_price, main_image_url, stock, images
//
// The first row of a sheet is its header; columns are matched by name.
// stock is a list such as "S:3, M:0" and images a comma separated list of
// URLs. A row that fails is recorded in the report and the import goes on.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ikkim/atelier-catalog/internal/app/model"
	"github.com/ikkim/atelier-catalog/internal/app/repository"
	"github.com/ikkim/atelier-catalog/internal/app/service"
	"github.com/ikkim/atelier-catalog/pkg/logger"
	"github.com/ikkim/atelier-catalog/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SheetCategories     = "categories"
	SheetColors         = "colors"
	SheetSizes          = "sizes"
	SheetParentProducts = "parent_products"
	SheetProducts       = "products"
)

var requiredColumns = map[string][]string{
	SheetCategories:     {"name"},
	SheetColors:         {"name", "hex_code"},
	SheetSizes:          {"name", "group"},
	SheetParentProducts: {"name"},
	SheetProducts:       {"parent", "style", "price", "main_image_url"},
}

var ErrMissingColumn = errors.New("required column missing")

// RowError is a rejected row. Row is 1-based as shown by spreadsheet tools.
type RowError struct {
	Sheet string
	Row   int
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Sheet, e.Row, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

type Report struct {
	Created map[string]int
	Errors  []RowError
}

func (r *Report) fail(sheet string, row int, err error) {
	r.Errors = append(r.Errors, RowError{Sheet: sheet, Row: row, Err: err})
}

type Importer struct {
	categories   service.CategoryService
	admin        service.CatalogAdminService
	categoryRepo repository.CategoryRepository
	attrRepo     repository.AttributeRepository

	// parents maps the names of this workbook's parent products to ids.
	parents map[string]uint
}

func New(
	categories service.CategoryService,
	admin service.CatalogAdminService,
	categoryRepo repository.CategoryRepository,
	attrRepo repository.AttributeRepository,
) *Importer {
	return &Importer{
		categories:   categories,
		admin:        admin,
		categoryRepo: categoryRepo,
		attrRepo:     attrRepo,
	}
}

// ImportFile opens path and imports it.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Report, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return im.importWorkbook(ctx, f)
}

func (im *Importer) Import(ctx context.Context, r io.Reader) (*Report, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	defer f.Close()
	return im.importWorkbook(ctx, f)
}

// row is one data row addressed by header name.
type row struct {
	number int
	cells  map[string]string
}

func (r row) get(column string) string {
	return strings.TrimSpace(r.cells[column])
}

// readSheet returns nil rows for an absent sheet.
func readSheet(f *excelize.File, sheet string) ([]row, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, nil
	}
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	header := make([]string, len(raw[0]))
	present := make(map[string]bool, len(raw[0]))
	for i, h := range raw[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
		present[header[i]] = true
	}
	for _, col := range requiredColumns[sheet] {
		if !present[col] {
			return nil, fmt.Errorf("sheet %s: %w: %s", sheet, ErrMissingColumn, col)
		}
	}

	rows := make([]row, 0, len(raw)-1)
	for i, values := range raw[1:] {
		r := row{number: i + 2, cells: make(map[string]string, len(header))}
		empty := true
		for j, v := range values {
			if j < len(header) {
				r.cells[header[j]] = v
			}
			if strings.TrimSpace(v) != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

func (im *Importer) importWorkbook(ctx context.Context, f *excelize.File) (*Report, error) {
	report := &Report{Created: map[string]int{}}
	steps := []struct {
		sheet string
		apply func(context.Context, row) error
	}{
		{SheetCategories, im.importCategory},
		{SheetColors, im.importColor},
		{SheetSizes, im.importSize},
		{SheetParentProducts, im.importParentProduct},
		{SheetProducts, im.importProduct},
	}

	im.parents = map[string]uint{}
	for _, step := range steps {
		rows, err := readSheet(f, step.sheet)
		if err != nil {
			return report, err
		}
		for _, r := range rows {
			if err := step.apply(ctx, r); err != nil {
				report.fail(step.sheet, r.number, err)
				continue
			}
			report.Created[step.sheet]++
		}
	}

	logger.Info("Workbook imported", map[string]interface{}{
		"created": report.Created,
		"errors":  len(report.Errors),
	})
	return report, nil
}

func (im *Importer) findCategory(ctx context.Context, name string) (*model.Category, error) {
	return im.categoryRepo.FindByPathSlug(ctx, util.Slugify(name))
}

func (im *Importer) importCategory(ctx context.Context, r row) error {
	input := service.CategoryInput{Name: r.get("name")}
	if parentName := r.get("parent"); parentName != "" {
		parent, err := im.findCategory(ctx, parentName)
		if err != nil {
			return fmt.Errorf("parent %q: %w", parentName, err)
		}
		input.ParentID = &parent.ID
	}
	_, err := im.categories.CreateCategory(ctx, input)
	return err
}

func (im *Importer) importColor(ctx context.Context, r row) error {
	_, err := im.admin.CreateColor(ctx, service.ColorInput{Name: r.get("name"), HexCode: r.get("hex_code")})
	return err
}

// importSize creates the size group on first use.
func (im *Importer) importSize(ctx context.Context, r row) error {
	group := r.get("group")
	if _, err := im.attrRepo.FindSizeGroupByName(ctx, group); errors.Is(err, repository.ErrSizeGroupNotFound) {
		if _, err := im.admin.CreateSizeGroup(ctx, group); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	_, err := im.admin.CreateSize(ctx, service.SizeInput{Name: r.get("name"), GroupName: group})
	return err
}

func (im *Importer) importParentProduct(ctx context.Context, r row) error {
	input := service.ParentProductInput{
		Name:        r.get("name"),
		Description: r.get("description"),
		FabricInfo:  r.get("fabric_info"),
		SizesInfo:   r.get("sizes_info"),
	}
	if categoryName := r.get("category"); categoryName != "" {
		category, err := im.findCategory(ctx, categoryName)
		if err != nil {
			return fmt.Errorf("category %q: %w", categoryName, err)
		}
		input.CategoryID = &category.ID
	}
	parent, err := im.admin.CreateParentProduct(ctx, input)
	if err != nil {
		return err
	}
	im.parents[parent.Name] = parent.ID
	return nil
}

func (im *Importer) importProduct(ctx context.Context, r row) error {
	parentName := r.get("parent")
	parentID, ok := im.parents[parentName]
	if !ok {
		return fmt.Errorf("parent %q: %w", parentName, repository.ErrParentProductNotFound)
	}

	input := service.ProductInput{
		ParentID:     parentID,
		Style:        r.get("style"),
		MainImageURL: r.get("main_image_url"),
	}
	price, err := decimal.NewFromString(r.get("price"))
	if err != nil {
		return model.NewValidationError("price", model.ErrInvalidPrice, "price %q is not a number", r.get("price"))
	}
	input.Price = price
	if raw := r.get("discounted_price"); raw != "" {
		discounted, err := decimal.NewFromString(raw)
		if err != nil {
			return model.NewValidationError("discounted_price", model.ErrInvalidDiscountedPrice, "discounted price %q is not a number", raw)
		}
		input.DiscountedPrice = decimal.NewNullDecimal(discounted)
	}
	if colorName := r.get("color"); colorName != "" {
		color, err := im.findColor(ctx, colorName)
		if err != nil {
			return err
		}
		input.ColorID = &color.ID
	}

	stock, err := im.resolveStock(ctx, r.get("stock"))
	if err != nil {
		return err
	}

	product, err := im.admin.CreateProduct(ctx, input)
	if err != nil {
		return err
	}
	for _, s := range stock {
		if _, err := im.admin.SetStock(ctx, product.ID, s); err != nil {
			return err
		}
	}
	for _, url := range splitList(r.get("images")) {
		if _, err := im.admin.AddImage(ctx, product.ID, url); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) findColor(ctx context.Context, name string) (*model.Color, error) {
	colors, err := im.attrRepo.ListColors(ctx)
	if err != nil {
		return nil, err
	}
	for i := range colors {
		if strings.EqualFold(colors[i].Name, name) {
			return &colors[i], nil
		}
	}
	return nil, fmt.Errorf("color %q: %w", name, repository.ErrColorNotFound)
}

// resolveStock parses the stock cell and looks up every size before the
// product is created.
func (im *Importer) resolveStock(ctx context.Context, raw string) ([]service.StockInput, error) {
	quantities, err := parseStock(raw)
	if err != nil {
		return nil, err
	}
	stock := make([]service.StockInput, 0, len(quantities))
	for name, qty := range quantities {
		size, err := im.attrRepo.FindSizeByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("size %q: %w", name, err)
		}
		stock = append(stock, service.StockInput{SizeID: size.ID, Quantity: qty})
	}
	return stock, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseStock reads "S:3, M:0" into size name -> quantity.
func parseStock(raw string) (map[string]int, error) {
	stock := map[string]int{}
	for _, entry := range splitList(raw) {
		name, qty, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, model.NewValidationError("stock", model.ErrInvalidQuantity, "stock entry %q is not size:quantity", entry)
		}
		n, err := strconv.Atoi(strings.TrimSpace(qty))
		if err != nil || n < 0 {
			return nil, model.NewValidationError("stock", model.ErrInvalidQuantity, "stock entry %q has an invalid quantity", entry)
		}
		stock[strings.TrimSpace(name)] = n
	}
	return stock, nil
}
