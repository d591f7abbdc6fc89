package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/export"
)

type memRepo struct {
	mu       sync.Mutex
	products []catalog.Product
	nextID   int
	err      error
}

func (r *memRepo) List(context.Context) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]catalog.Product, len(r.products))
	copy(out, r.products)
	return out, nil
}

func (r *memRepo) Get(_ context.Context, id string) (catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.ID == id {
			return p, nil
		}
	}
	return catalog.Product{}, catalog.ErrNotFound
}

func (r *memRepo) Create(_ context.Context, p catalog.Product) (catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return catalog.Product{}, r.err
	}
	r.nextID++
	p.ID = fmt.Sprintf("p%d", r.nextID)
	r.products = append(r.products, p)
	return p, nil
}

func (r *memRepo) Update(_ context.Context, id string, p catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.products {
		if r.products[i].ID == id {
			p.ID = id
			r.products[i] = p
			return nil
		}
	}
	return catalog.ErrNotFound
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.products {
		if r.products[i].ID == id {
			r.products = append(r.products[:i], r.products[i+1:]...)
			return nil
		}
	}
	return catalog.ErrNotFound
}

type recordingPublisher struct {
	mu      sync.Mutex
	events  []string
	summary events.ExportSummary
	err     error
}

func (p *recordingPublisher) record(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, name)
	return p.err
}

func (p *recordingPublisher) ProductCreated(_ context.Context, pr catalog.Product) error {
	return p.record("created:" + pr.ID)
}

func (p *recordingPublisher) ProductUpdated(_ context.Context, pr catalog.Product) error {
	return p.record("updated:" + pr.ID)
}

func (p *recordingPublisher) ProductDeleted(_ context.Context, id string) error {
	return p.record("deleted:" + id)
}

func (p *recordingPublisher) CatalogExported(_ context.Context, s events.ExportSummary) error {
	p.summary = s
	return p.record("exported")
}

func newTestCatalog(repo catalog.Repository, pub EventPublisher, opts Options) *Catalog {
	s := NewCatalog(repo, pub, slog.New(slog.NewTextHandler(io.Discard, nil)), opts)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return s
}

func mug() catalog.Product {
	return catalog.Product{
		Name:  "Mug",
		Type:  catalog.TypeSimple,
		SKU:   "MUG",
		Price: decimal.NewNullDecimal(decimal.RequireFromString("9.50")),
	}
}

func tee() catalog.Product {
	return catalog.Product{
		Name: "Tee",
		Type: catalog.TypeVariable,
		SKU:  "TEE",
		Attributes: []catalog.ProductAttribute{
			{Name: "Color", Values: []string{"Red", "Blue"}, Visible: true, Variation: true},
		},
		Variants: []catalog.ProductVariant{
			{SKU: "TEE-RED", Attributes: map[string]string{"Color": "Red"}},
			{SKU: "TEE-BLUE", Attributes: map[string]string{"Color": "Blue"}},
		},
	}
}

func TestCatalog_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	pub := &recordingPublisher{}
	s := newTestCatalog(repo, pub, Options{})

	id, err := s.Create(ctx, mug())
	require.NoError(t, err)
	assert.Equal(t, "p1", id)

	updated := mug()
	updated.Name = "Big Mug"
	require.NoError(t, s.Update(ctx, id, updated))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Big Mug", got.Name)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	require.ErrorIs(t, err, catalog.ErrNotFound)

	assert.Equal(t, []string{"created:p1", "updated:p1", "deleted:p1"}, pub.events)
}

func TestCatalog_RejectsInvalidProducts(t *testing.T) {
	repo := &memRepo{}
	pub := &recordingPublisher{}
	s := newTestCatalog(repo, pub, Options{})

	bad := tee()
	bad.Variants[0].Attributes["Color"] = "Green"

	_, err := s.Create(context.Background(), bad)
	var verr *catalog.ValidationError
	require.ErrorAs(t, err, &verr)

	err = s.Update(context.Background(), "p1", catalog.Product{Type: catalog.TypeSimple})
	require.ErrorAs(t, err, &verr)

	assert.Empty(t, repo.products)
	assert.Empty(t, pub.events)
}

func TestCatalog_NotFound(t *testing.T) {
	s := newTestCatalog(&memRepo{}, nil, Options{})

	require.ErrorIs(t, s.Update(context.Background(), "missing", mug()), catalog.ErrNotFound)
	require.ErrorIs(t, s.Delete(context.Background(), "missing"), catalog.ErrNotFound)
}

func TestCatalog_PublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	s := newTestCatalog(&memRepo{}, pub, Options{})

	_, err := s.Create(context.Background(), mug())
	require.NoError(t, err)
	assert.Len(t, pub.events, 1)
}

func TestCatalog_ExportCSV(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	pub := &recordingPublisher{}
	s := newTestCatalog(repo, pub, Options{})

	_, err := s.Create(ctx, mug())
	require.NoError(t, err)
	_, err = s.Create(ctx, tee())
	require.NoError(t, err)

	res, err := s.Export(ctx, export.FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "woocommerce-products-2024-05-01.csv", res.Filename)
	assert.Equal(t, export.CSVContentType, res.ContentType)
	assert.Equal(t, 2, res.Products)
	assert.Equal(t, 4, res.Rows)

	records, err := csv.NewReader(bytes.NewReader(res.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, export.ColID, records[0][0])

	products, err := repo.List(ctx)
	require.NoError(t, err)
	want, err := export.Catalog(products)
	require.NoError(t, err)
	assert.Equal(t, want, string(res.Body))

	assert.Equal(t, events.ExportSummary{
		Format:       "csv",
		Filename:     res.Filename,
		ProductCount: 2,
		RowCount:     4,
	}, pub.summary)
}

func TestCatalog_ExportBOM(t *testing.T) {
	s := newTestCatalog(&memRepo{}, nil, Options{ExportBOM: true})

	res, err := s.Export(context.Background(), export.FormatCSV)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(res.Body, []byte{0xEF, 0xBB, 0xBF}))
}

func TestCatalog_ExportXLSX(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	s := newTestCatalog(repo, nil, Options{})

	_, err := s.Create(ctx, tee())
	require.NoError(t, err)

	res, err := s.Export(ctx, export.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "woocommerce-products-2024-05-01.xlsx", res.Filename)
	assert.Equal(t, export.XLSXContentType, res.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(res.Body))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestCatalog_ExportErrors(t *testing.T) {
	t.Run("repository failure", func(t *testing.T) {
		dbErr := errors.New("connection reset")
		s := newTestCatalog(&memRepo{err: dbErr}, nil, Options{})

		_, err := s.Export(context.Background(), export.FormatCSV)
		require.ErrorIs(t, err, dbErr)
	})

	t.Run("unexportable product", func(t *testing.T) {
		repo := &memRepo{products: []catalog.Product{{Name: "No id", Type: catalog.TypeSimple}}}
		pub := &recordingPublisher{}
		s := newTestCatalog(repo, pub, Options{})

		_, err := s.Export(context.Background(), export.FormatCSV)
		require.ErrorIs(t, err, export.ErrInvalidProduct)
		assert.Empty(t, pub.events)
	})
}
