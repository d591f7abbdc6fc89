package export

import (
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/catalog"
)

// Table is a fully built export: one schema and the rows of every product
// in input order.
type Table struct {
	Schema *Schema
	Rows   []Row
}

// BuildTable fixes the schema for the whole batch, then builds the rows of
// each product in order.
func BuildTable(products []catalog.Product) (*Table, error) {
	schema := SchemaFor(products)
	t := &Table{Schema: schema, Rows: make([]Row, 0, len(products))}

	for i, p := range products {
		rows, err := BuildRows(schema, p)
		if err != nil {
			return nil, &ProductError{Index: i, ProductID: p.ID, Err: err}
		}
		t.Rows = append(t.Rows, rows...)
	}
	return t, nil
}

func (t *Table) Header() []string {
	return t.Schema.Columns()
}

// Records returns the data rows in schema order, without the header.
func (t *Table) Records() [][]string {
	records := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		records[i] = r.Values()
	}
	return records
}
