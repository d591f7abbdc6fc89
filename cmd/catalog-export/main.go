package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/export"
)

type options struct {
	in     string
	dsn    string
	out    string
	format string
	bom    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.in, "in", "", "JSON file holding an array of products")
	flag.StringVar(&opts.dsn, "dsn", "", "PostgreSQL DSN to read products from (used when -in is empty)")
	flag.StringVar(&opts.out, "out", "", "output file or directory, - for stdout (defaults to woocommerce-products-<date>.<format>)")
	flag.StringVar(&opts.format, "format", "csv", "csv | xlsx")
	flag.BoolVar(&opts.bom, "bom", false, "prefix CSV output with a UTF-8 byte order mark")
	flag.Parse()

	logger := config.LogConfig{Level: "info", Format: "text"}.NewLogger(os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx, opts, os.Stdout, logger); err != nil {
		logger.Error("export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout io.Writer, logger *slog.Logger) error {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	products, err := loadProducts(ctx, opts)
	if err != nil {
		return err
	}

	table, err := export.BuildTable(products)
	if err != nil {
		return err
	}

	w, path, closeFn, err := openOutput(opts.out, format, stdout)
	if err != nil {
		return err
	}

	switch format {
	case export.FormatXLSX:
		err = export.WriteXLSX(w, table)
	default:
		err = export.WriteCSV(w, table, export.CSVOptions{BOMPrefix: opts.bom})
	}
	if cerr := closeFn(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	logger.Info("catalog exported",
		slog.String("output", path),
		slog.String("format", string(format)),
		slog.Int("products", len(products)),
		slog.Int("rows", len(table.Rows)),
	)
	return nil
}

func loadProducts(ctx context.Context, opts options) ([]catalog.Product, error) {
	switch {
	case opts.in != "":
		data, err := os.ReadFile(opts.in)
		if err != nil {
			return nil, fmt.Errorf("read products: %w", err)
		}
		var products []catalog.Product
		if err := json.Unmarshal(data, &products); err != nil {
			return nil, fmt.Errorf("decode %s: %w", opts.in, err)
		}
		return products, nil

	case opts.dsn != "":
		pool, err := db.NewPool(ctx, opts.dsn)
		if err != nil {
			return nil, err
		}
		defer pool.Close()
		return catalog.NewPostgresRepository(pool).List(ctx)

	default:
		return nil, errors.New("one of -in or -dsn is required")
	}
}

// openOutput resolves the destination. An empty path or a directory gets
// the dated default file name.
func openOutput(out string, format export.Format, stdout io.Writer) (io.Writer, string, func() error, error) {
	if out == "-" {
		return stdout, "stdout", func() error { return nil }, nil
	}

	name := export.Filename(format, time.Now())
	switch {
	case out == "":
		out = name
	default:
		if info, err := os.Stat(out); err == nil && info.IsDir() {
			out = filepath.Join(out, name)
		}
	}

	f, err := os.Create(out)
	if err != nil {
		return nil, "", nil, fmt.Errorf("create output: %w", err)
	}
	return f, out, f.Close, nil
}
