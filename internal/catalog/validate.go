package catalog

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every problem found on a product.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid product: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the struct tags and the cross-field rules the exporter
// relies on: simple products carry no attributes or variants, and every
// variant selects exactly one known value per parent attribute.
func Validate(p Product) error {
	verr := &ValidationError{}

	if err := validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate product: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.add(fe.Namespace(), "failed %q", fe.Tag())
		}
	}

	if p.Price.Valid && p.Price.Decimal.IsNegative() {
		verr.add("price", "must not be negative")
	}
	for i, v := range p.Variants {
		if v.Price.Valid && v.Price.Decimal.IsNegative() {
			verr.add(fmt.Sprintf("variants[%d].price", i), "must not be negative")
		}
	}

	switch p.Type {
	case TypeSimple:
		if len(p.Attributes) > 0 {
			verr.add("attributes", "simple products cannot have attributes")
		}
		if len(p.Variants) > 0 {
			verr.add("variants", "simple products cannot have variants")
		}
	case TypeVariable:
		validateVariants(p, verr)
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func validateVariants(p Product, verr *ValidationError) {
	seen := make(map[string]struct{}, len(p.Attributes))
	for i, a := range p.Attributes {
		if _, dup := seen[a.Name]; dup {
			verr.add(fmt.Sprintf("attributes[%d].name", i), "duplicate attribute %q", a.Name)
		}
		seen[a.Name] = struct{}{}
	}

	for i, v := range p.Variants {
		field := fmt.Sprintf("variants[%d].attributes", i)
		for _, name := range slices.Sorted(maps.Keys(v.Attributes)) {
			value := v.Attributes[name]
			attr, ok := p.Attribute(name)
			if !ok {
				verr.add(field, "unknown attribute %q", name)
				continue
			}
			if !slices.Contains(attr.Values, value) {
				verr.add(field, "value %q not allowed for %q", value, name)
			}
		}
		for _, a := range p.Attributes {
			if _, ok := v.Attributes[a.Name]; !ok {
				verr.add(field, "missing value for %q", a.Name)
			}
		}
	}
}
