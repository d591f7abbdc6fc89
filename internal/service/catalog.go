package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/export"
)

// EventPublisher is implemented by *events.Publisher.
type EventPublisher interface {
	ProductCreated(ctx context.Context, p catalog.Product) error
	ProductUpdated(ctx context.Context, p catalog.Product) error
	ProductDeleted(ctx context.Context, productID string) error
	CatalogExported(ctx context.Context, summary events.ExportSummary) error
}

type Options struct {
	// ExportBOM prefixes CSV exports with a UTF-8 byte order mark.
	ExportBOM bool
}

// Catalog validates and stores products and produces catalog exports.
// A nil publisher disables events.
type Catalog struct {
	repo   catalog.Repository
	pub    EventPublisher
	logger *slog.Logger
	opts   Options
	now    func() time.Time
}

func NewCatalog(repo catalog.Repository, pub EventPublisher, logger *slog.Logger, opts Options) *Catalog {
	return &Catalog{
		repo:   repo,
		pub:    pub,
		logger: logger.With(slog.String("component", "catalog")),
		opts:   opts,
		now:    time.Now,
	}
}

func (s *Catalog) List(ctx context.Context) ([]catalog.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *Catalog) Get(ctx context.Context, id string) (catalog.Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// Create validates p and stores it, returning the new product id.
func (s *Catalog) Create(ctx context.Context, p catalog.Product) (string, error) {
	if err := catalog.Validate(p); err != nil {
		return "", err
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return "", fmt.Errorf("create product: %w", err)
	}
	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", created.ID),
		slog.String("type", string(created.Type)),
		slog.Int("variants", len(created.Variants)),
	)

	s.publish(ctx, "ProductCreated", func(pub EventPublisher) error {
		return pub.ProductCreated(ctx, created)
	})
	return created.ID, nil
}

// Update replaces the product and all of its images, attributes and variants.
func (s *Catalog) Update(ctx context.Context, id string, p catalog.Product) error {
	if err := catalog.Validate(p); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, id, p); err != nil {
		return fmt.Errorf("update product %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", id))

	p.ID = id
	s.publish(ctx, "ProductUpdated", func(pub EventPublisher) error {
		return pub.ProductUpdated(ctx, p)
	})
	return nil
}

func (s *Catalog) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))

	s.publish(ctx, "ProductDeleted", func(pub EventPublisher) error {
		return pub.ProductDeleted(ctx, id)
	})
	return nil
}

// ExportResult is a serialized catalog ready for download.
type ExportResult struct {
	Format      export.Format
	Filename    string
	ContentType string
	Body        []byte
	Products    int
	Rows        int
}

// Export loads every product and writes the catalog in the given format.
func (s *Catalog) Export(ctx context.Context, format export.Format) (ExportResult, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return ExportResult{}, fmt.Errorf("list products: %w", err)
	}

	table, err := export.BuildTable(products)
	if err != nil {
		return ExportResult{}, fmt.Errorf("build export: %w", err)
	}

	var buf bytes.Buffer
	if err := s.write(&buf, format, table); err != nil {
		return ExportResult{}, fmt.Errorf("write %s export: %w", format, err)
	}

	res := ExportResult{
		Format:      format,
		Filename:    export.Filename(format, s.now()),
		ContentType: format.ContentType(),
		Body:        buf.Bytes(),
		Products:    len(products),
		Rows:        len(table.Rows),
	}
	s.logger.InfoContext(ctx, "catalog exported",
		slog.String("format", string(format)),
		slog.Int("products", res.Products),
		slog.Int("rows", res.Rows),
		slog.Int("bytes", len(res.Body)),
	)

	s.publish(ctx, "CatalogExported", func(pub EventPublisher) error {
		return pub.CatalogExported(ctx, events.ExportSummary{
			Format:       string(format),
			Filename:     res.Filename,
			ProductCount: res.Products,
			RowCount:     res.Rows,
		})
	})
	return res, nil
}

func (s *Catalog) write(w io.Writer, format export.Format, table *export.Table) error {
	if format == export.FormatXLSX {
		return export.WriteXLSX(w, table)
	}
	return export.WriteCSV(w, table, export.CSVOptions{BOMPrefix: s.opts.ExportBOM})
}

// publish emits an event when a publisher is configured. Failures are logged
// and never fail the operation that triggered them.
func (s *Catalog) publish(ctx context.Context, event string, fn func(EventPublisher) error) {
	if s.pub == nil {
		return
	}
	if err := fn(s.pub); err != nil {
		s.logger.WarnContext(ctx, "publish event failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
