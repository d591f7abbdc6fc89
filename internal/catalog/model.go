package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductType string

const (
	TypeSimple   ProductType = "simple"
	TypeVariable ProductType = "variable"
)

func (t ProductType) Valid() bool {
	return t == TypeSimple || t == TypeVariable
}

type Product struct {
	ID               string              `json:"id"`
	Name             string              `json:"name" validate:"required"`
	ShortDescription string              `json:"shortDescription"`
	LongDescription  string              `json:"longDescription"`
	Type             ProductType         `json:"type" validate:"required,oneof=simple variable"`
	Price            decimal.NullDecimal `json:"price"`
	SKU              string              `json:"sku"`
	MainImage        string              `json:"mainImage,omitempty"`
	GalleryImages    []string            `json:"galleryImages"`
	Attributes       []ProductAttribute  `json:"attributes,omitempty" validate:"dive"`
	Variants         []ProductVariant    `json:"variants,omitempty" validate:"dive"`
	CreatedAt        time.Time           `json:"createdAt"`
}

// ProductAttribute is a named value set, e.g. Color: [Red, Blue].
type ProductAttribute struct {
	ID        string   `json:"id"`
	Name      string   `json:"name" validate:"required"`
	Values    []string `json:"values" validate:"min=1,dive,required"`
	Visible   bool     `json:"visible"`
	Variation bool     `json:"variation"`
}

// ProductVariant is one purchasable combination of attribute values.
// Attributes maps an attribute name to the selected value.
type ProductVariant struct {
	ID         string              `json:"id"`
	Attributes map[string]string   `json:"attributes"`
	SKU        string              `json:"sku" validate:"required"`
	Price      decimal.NullDecimal `json:"price"`
	Stock      *int                `json:"stock,omitempty" validate:"omitempty,min=0"`
	Image      string              `json:"image,omitempty"`
}

// Attribute returns the attribute with the given name.
func (p Product) Attribute(name string) (ProductAttribute, bool) {
	for _, a := range p.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return ProductAttribute{}, false
}
