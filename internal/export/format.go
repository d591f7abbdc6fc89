package export

import (
	"fmt"
	"strings"
	"time"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" and "xlsx" in any case; empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatCSV):
		return FormatCSV, nil
	case string(FormatXLSX):
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return XLSXContentType
	}
	return CSVContentType
}

// Filename suggests a download name such as woocommerce-products-2024-05-01.csv.
func Filename(f Format, now time.Time) string {
	return fmt.Sprintf("woocommerce-products-%s.%s", now.UTC().Format(time.DateOnly), f)
}
