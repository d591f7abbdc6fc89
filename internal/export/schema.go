package export

import (
	"fmt"

	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/catalog"
)

const (
	ColID                 = "ID"
	ColType               = "Type"
	ColSKU                = "SKU"
	ColName               = "Name"
	ColPublished          = "Published"
	ColFeatured           = "Is featured?"
	ColVisibility         = "Visibility in catalog"
	ColShortDescription   = "Short description"
	ColDescription        = "Description"
	ColTaxStatus          = "Tax status"
	ColTaxClass           = "Tax class"
	ColInStock            = "In stock?"
	ColStock              = "Stock"
	ColBackorders         = "Backorders allowed?"
	ColSoldIndividually   = "Sold individually?"
	ColWeight             = "Weight (lbs)"
	ColLength             = "Length (in)"
	ColWidth              = "Width (in)"
	ColHeight             = "Height (in)"
	ColReviews            = "Allow customer reviews?"
	ColPurchaseNote       = "Purchase note"
	ColSalePrice          = "Sale price"
	ColRegularPrice       = "Regular price"
	ColCategories         = "Categories"
	ColTags               = "Tags"
	ColShippingClass      = "Shipping class"
	ColImages             = "Images"
	ColDownloadLimit      = "Download limit"
	ColDownloadExpiryDays = "Download expiry days"
	ColParent             = "Parent"
	ColGroupedProducts    = "Grouped products"
	ColUpsells            = "Upsells"
	ColCrossSells         = "Cross-sells"
	ColExternalURL        = "External URL"
	ColButtonText         = "Button text"
	ColPosition           = "Position"
)

var baseColumns = []string{
	ColID,
	ColType,
	ColSKU,
	ColName,
	ColPublished,
	ColFeatured,
	ColVisibility,
	ColShortDescription,
	ColDescription,
	ColTaxStatus,
	ColTaxClass,
	ColInStock,
	ColStock,
	ColBackorders,
	ColSoldIndividually,
	ColWeight,
	ColLength,
	ColWidth,
	ColHeight,
	ColReviews,
	ColPurchaseNote,
	ColSalePrice,
	ColRegularPrice,
	ColCategories,
	ColTags,
	ColShippingClass,
	ColImages,
	ColDownloadLimit,
	ColDownloadExpiryDays,
	ColParent,
	ColGroupedProducts,
	ColUpsells,
	ColCrossSells,
	ColExternalURL,
	ColButtonText,
	ColPosition,
}

// AttributeColumns returns the four column names of attribute slot i (1-based).
func AttributeColumns(i int) (name, values, visible, global string) {
	return fmt.Sprintf("Attribute %d name", i),
		fmt.Sprintf("Attribute %d value(s)", i),
		fmt.Sprintf("Attribute %d visible", i),
		fmt.Sprintf("Attribute %d global", i)
}

// Schema is the ordered column set shared by every row of one export.
type Schema struct {
	columns []string
	index   map[string]int
	slots   int
}

// NewSchema builds the base columns plus attributeSlots attribute families.
// At least one family is always present.
func NewSchema(attributeSlots int) *Schema {
	if attributeSlots < 1 {
		attributeSlots = 1
	}

	cols := make([]string, 0, len(baseColumns)+4*attributeSlots)
	cols = append(cols, baseColumns...)
	for i := 1; i <= attributeSlots; i++ {
		name, values, visible, global := AttributeColumns(i)
		cols = append(cols, name, values, visible, global)
	}

	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c] = i
	}
	return &Schema{columns: cols, index: index, slots: attributeSlots}
}

// SchemaFor sizes the attribute families for the widest variable product.
func SchemaFor(products []catalog.Product) *Schema {
	slots := 0
	for _, p := range products {
		if p.Type == catalog.TypeVariable && len(p.Attributes) > slots {
			slots = len(p.Attributes)
		}
	}
	return NewSchema(slots)
}

// Columns returns a copy of the header.
func (s *Schema) Columns() []string {
	return append([]string(nil), s.columns...)
}

func (s *Schema) Len() int { return len(s.columns) }

func (s *Schema) AttributeSlots() int { return s.slots }

// NewRow returns a row with every column set to the empty string.
func (s *Schema) NewRow() Row {
	return Row{schema: s, values: make([]string, s.Len())}
}
