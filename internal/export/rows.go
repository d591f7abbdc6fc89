package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/catalog"
)

const (
	rowTypeSimple    = "simple"
	rowTypeVariable  = "variable"
	rowTypeVariation = "variation"

	imageSeparator = ", "
	valueSeparator = " | "
)

// ErrInvalidProduct marks products that break the input contract.
var ErrInvalidProduct = errors.New("invalid product")

// ProductError reports which product of a batch was rejected.
type ProductError struct {
	Index     int
	ProductID string
	Err       error
}

func (e *ProductError) Error() string {
	return fmt.Sprintf("product %d (id %q): %v", e.Index, e.ProductID, e.Err)
}

func (e *ProductError) Unwrap() error { return e.Err }

// BuildRows maps one product to its rows: one row for a simple product, a
// parent row plus one variation row per variant for a variable product.
func BuildRows(schema *Schema, p catalog.Product) ([]Row, error) {
	if err := checkProduct(schema, p); err != nil {
		return nil, err
	}

	if p.Type == catalog.TypeSimple {
		return []Row{simpleRow(schema, p)}, nil
	}

	rows := make([]Row, 0, 1+len(p.Variants))
	rows = append(rows, parentRow(schema, p))
	for i, v := range p.Variants {
		rows = append(rows, variationRow(schema, p, v, i))
	}
	return rows, nil
}

func checkProduct(schema *Schema, p catalog.Product) error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidProduct)
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidProduct, p.Type)
	}
	if p.Type != catalog.TypeVariable {
		return nil
	}

	if len(p.Attributes) > schema.AttributeSlots() {
		return fmt.Errorf("%w: %d attributes exceed %d attribute columns",
			ErrInvalidProduct, len(p.Attributes), schema.AttributeSlots())
	}
	for i, v := range p.Variants {
		if v.SKU == "" {
			return fmt.Errorf("%w: variant %d missing sku", ErrInvalidProduct, i)
		}
	}
	return nil
}

// baseRow applies the defaults shared by every row kind.
func baseRow(schema *Schema) Row {
	row := schema.NewRow()
	row.Set(ColPublished, "1")
	row.Set(ColFeatured, "0")
	row.Set(ColTaxStatus, "taxable")
	row.Set(ColInStock, "1")
	row.Set(ColBackorders, "0")
	row.Set(ColSoldIndividually, "0")
	row.Set(ColPosition, "0")
	return row
}

func productRow(schema *Schema, p catalog.Product, rowType string) Row {
	row := baseRow(schema)
	row.Set(ColID, p.ID)
	row.Set(ColType, rowType)
	row.Set(ColSKU, p.SKU)
	row.Set(ColName, p.Name)
	row.Set(ColVisibility, "visible")
	row.Set(ColShortDescription, p.ShortDescription)
	row.Set(ColDescription, p.LongDescription)
	row.Set(ColReviews, "1")
	row.Set(ColImages, joinImages(p.MainImage, p.GalleryImages))
	return row
}

func simpleRow(schema *Schema, p catalog.Product) Row {
	row := productRow(schema, p, rowTypeSimple)
	if p.Price.Valid {
		row.Set(ColRegularPrice, formatPrice(p.Price.Decimal))
	}
	return row
}

// parentRow carries no price: variable products are priced per variant.
func parentRow(schema *Schema, p catalog.Product) Row {
	row := productRow(schema, p, rowTypeVariable)
	for i, a := range p.Attributes {
		setAttribute(row, i+1, a.Name, strings.Join(a.Values, valueSeparator))
	}
	return row
}

func variationRow(schema *Schema, p catalog.Product, v catalog.ProductVariant, position int) Row {
	row := baseRow(schema)
	row.Set(ColType, rowTypeVariation)
	row.Set(ColSKU, v.SKU)
	row.Set(ColName, variationName(p, v))
	row.Set(ColRegularPrice, formatPrice(variantPrice(p, v)))
	if v.Stock != nil {
		row.Set(ColStock, strconv.Itoa(*v.Stock))
	}
	row.Set(ColImages, v.Image)
	row.Set(ColParent, parentKey(p))
	row.Set(ColPosition, strconv.Itoa(position))
	for i, a := range p.Attributes {
		setAttribute(row, i+1, a.Name, v.Attributes[a.Name])
	}
	return row
}

func setAttribute(row Row, slot int, name, values string) {
	nameCol, valuesCol, visibleCol, globalCol := AttributeColumns(slot)
	row.Set(nameCol, name)
	row.Set(valuesCol, values)
	row.Set(visibleCol, "1")
	row.Set(globalCol, "1")
}

// variationName labels a variation with its first attribute value only.
func variationName(p catalog.Product, v catalog.ProductVariant) string {
	if len(p.Attributes) == 0 {
		return p.Name
	}
	return p.Name + " - " + v.Attributes[p.Attributes[0].Name]
}

func variantPrice(p catalog.Product, v catalog.ProductVariant) decimal.Decimal {
	if v.Price.Valid {
		return v.Price.Decimal
	}
	if p.Price.Valid {
		return p.Price.Decimal
	}
	return decimal.Zero
}

// parentKey must match the SKU (or, without one, the ID) of the parent row.
func parentKey(p catalog.Product) string {
	if p.SKU != "" {
		return p.SKU
	}
	return p.ID
}

func joinImages(main string, gallery []string) string {
	urls := make([]string, 0, len(gallery)+1)
	if main != "" {
		urls = append(urls, main)
	}
	for _, u := range gallery {
		if u != "" {
			urls = append(urls, u)
		}
	}
	return strings.Join(urls, imageSeparator)
}

// formatPrice renders the decimal at its stored scale: no symbol, no
// grouping, no rounding.
func formatPrice(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}
