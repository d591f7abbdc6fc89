package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/catalog"
)

const CSVContentType = "text/csv; charset=utf-8"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures CSV writing behavior
type CSVOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes the header line then one line per row. Fields holding a
// comma, a quote or a line break are quoted with inner quotes doubled.
func WriteCSV(w io.Writer, t *Table, opts CSVOptions) error {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if err := writer.Write(t.Header()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, record := range t.Records() {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// CSV serializes the table to a string.
func (t *Table) CSV() (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t, CSVOptions{}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Catalog exports a batch of products as WooCommerce import CSV. An empty
// batch yields the header line only.
func Catalog(products []catalog.Product) (string, error) {
	t, err := BuildTable(products)
	if err != nil {
		return "", err
	}
	return t.CSV()
}
