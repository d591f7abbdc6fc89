package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productColumns = []string{"id", "name", "short_description", "long_description", "type", "price", "sku", "main_image", "created_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func nullPrice(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestPostgresRepository_List(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM products ORDER BY created_at DESC`).
		WillReturnRows(pgxmock.NewRows(productColumns).
			AddRow("p2", "Tee", "", "", "variable", decimal.NullDecimal{}, "TEE", "", created).
			AddRow("p1", "Mug", "short", "long", "simple", nullPrice("9.50"), "MUG", "https://img/mug.jpg", created.Add(-time.Hour)))

	mock.ExpectQuery(`FROM product_images`).
		WithArgs([]string{"p2", "p1"}).
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "url"}).
			AddRow("p1", "https://img/mug-1.jpg").
			AddRow("p1", "https://img/mug-2.jpg"))

	mock.ExpectQuery(`FROM product_attributes`).
		WithArgs([]string{"p2", "p1"}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "name", "allowed_values", "visible", "variation"}).
			AddRow("a1", "p2", "Color", []string{"Red", "Blue"}, true, true))

	mock.ExpectQuery(`FROM product_variants`).
		WithArgs([]string{"p2", "p1"}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "sku", "price", "stock", "image"}).
			AddRow("v1", "p2", "TEE-RED", nullPrice("12.00"), intPtr(4), "").
			AddRow("v2", "p2", "TEE-BLUE", decimal.NullDecimal{}, (*int)(nil), "https://img/blue.jpg"))

	mock.ExpectQuery(`FROM product_variant_attributes`).
		WithArgs([]string{"v1", "v2"}).
		WillReturnRows(pgxmock.NewRows([]string{"variant_id", "name", "value"}).
			AddRow("v1", "Color", "Red").
			AddRow("v2", "Color", "Blue"))

	products, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	tee, mug := products[0], products[1]

	assert.Equal(t, "p2", tee.ID)
	assert.Equal(t, TypeVariable, tee.Type)
	assert.False(t, tee.Price.Valid)
	assert.Empty(t, tee.GalleryImages)
	require.Len(t, tee.Attributes, 1)
	assert.Equal(t, []string{"Red", "Blue"}, tee.Attributes[0].Values)
	require.Len(t, tee.Variants, 2)
	assert.Equal(t, map[string]string{"Color": "Red"}, tee.Variants[0].Attributes)
	assert.Equal(t, 4, *tee.Variants[0].Stock)
	assert.Nil(t, tee.Variants[1].Stock)
	assert.Equal(t, "https://img/blue.jpg", tee.Variants[1].Image)

	assert.Equal(t, "p1", mug.ID)
	assert.Equal(t, "9.5", mug.Price.Decimal.String())
	assert.Equal(t, []string{"https://img/mug-1.jpg", "https://img/mug-2.jpg"}, mug.GalleryImages)
	assert.Empty(t, mug.Variants)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListEmpty(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	mock.ExpectQuery(`FROM products ORDER BY created_at DESC`).
		WillReturnRows(pgxmock.NewRows(productColumns))

	products, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Get(t *testing.T) {
	tests := map[string]struct {
		queryErr error
		wantErr  error
	}{
		"no rows":      {queryErr: pgx.ErrNoRows, wantErr: ErrNotFound},
		"invalid uuid": {queryErr: &pgconn.PgError{Code: "22P02"}, wantErr: ErrNotFound},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			mock := newMock(t)
			repo := NewPostgresRepository(mock)

			mock.ExpectQuery(`FROM products WHERE id = \$1`).
				WithArgs("missing").
				WillReturnError(tt.queryErr)

			_, err := repo.Get(context.Background(), "missing")
			require.ErrorIs(t, err, tt.wantErr)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresRepository_GetLoadsChildren(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	mock.ExpectQuery(`FROM products WHERE id = \$1`).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows(productColumns).
			AddRow("p1", "Mug", "", "", "simple", nullPrice("3"), "MUG", "", time.Now()))
	mock.ExpectQuery(`FROM product_images`).
		WithArgs([]string{"p1"}).
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "url"}))
	mock.ExpectQuery(`FROM product_attributes`).
		WithArgs([]string{"p1"}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "name", "allowed_values", "visible", "variation"}))
	mock.ExpectQuery(`FROM product_variants`).
		WithArgs([]string{"p1"}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "sku", "price", "stock", "image"}))

	p, err := repo.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Mug", p.Name)
	assert.Equal(t, TypeSimple, p.Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	in := Product{
		Name:          "Tee",
		Type:          TypeVariable,
		SKU:           "TEE",
		GalleryImages: []string{"https://img/tee.jpg"},
		Attributes: []ProductAttribute{
			{Name: "Color", Values: []string{"Red"}, Visible: true, Variation: true},
		},
		Variants: []ProductVariant{
			{SKU: "TEE-RED-S", Attributes: map[string]string{"Size": "S", "Color": "Red"}, Stock: intPtr(2)},
		},
	}

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectQuery(`INSERT INTO products`).
		WithArgs("Tee", "", "", "variable", pgxmock.AnyArg(), "TEE", "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("p1", created))
	mock.ExpectExec(`INSERT INTO product_images`).
		WithArgs("p1", "https://img/tee.jpg", 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`INSERT INTO product_attributes`).
		WithArgs("p1", "Color", []string{"Red"}, true, true, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("a1"))
	mock.ExpectQuery(`INSERT INTO product_variants`).
		WithArgs("p1", "TEE-RED-S", pgxmock.AnyArg(), pgxmock.AnyArg(), "", 0).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("v1"))
	// attribute names are written in sorted order
	mock.ExpectExec(`INSERT INTO product_variant_attributes`).
		WithArgs("v1", "Color", "Red").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO product_variant_attributes`).
		WithArgs("v1", "Size", "S").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	got, err := repo.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, "a1", got.Attributes[0].ID)
	assert.Equal(t, "v1", got.Variants[0].ID)
	assert.Empty(t, in.ID, "input must not be modified")
	assert.Empty(t, in.Variants[0].ID, "input must not be modified")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_CreateRollsBackOnError(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectQuery(`INSERT INTO products`).
		WithArgs("Mug", "", "", "simple", pgxmock.AnyArg(), "", "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("p1", time.Now()))
	mock.ExpectExec(`INSERT INTO product_images`).
		WithArgs("p1", "https://img/mug.jpg", 0).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), Product{
		Name:          "Mug",
		Type:          TypeSimple,
		GalleryImages: []string{"https://img/mug.jpg"},
	})
	require.ErrorContains(t, err, "insert product_image")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Update(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec(`UPDATE products`).
		WithArgs("p1", "Mug", "", "", "simple", pgxmock.AnyArg(), "MUG", "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM product_images`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`DELETE FROM product_attributes`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM product_variants`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO product_images`).
		WithArgs("p1", "https://img/new.jpg", 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), "p1", Product{
		Name:          "Mug",
		Type:          TypeSimple,
		SKU:           "MUG",
		Price:         nullPrice("4.00"),
		GalleryImages: []string{"https://img/new.jpg"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec(`UPDATE products`).
		WithArgs("missing", "x", "", "", "simple", pgxmock.AnyArg(), "", "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), "missing", Product{Name: "x", Type: TypeSimple})
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Delete(t *testing.T) {
	tests := map[string]struct {
		affected int64
		wantErr  error
	}{
		"deleted": {affected: 1},
		"missing": {affected: 0, wantErr: ErrNotFound},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			mock := newMock(t)
			repo := NewPostgresRepository(mock)

			mock.ExpectExec(`DELETE FROM products`).
				WithArgs("p1").
				WillReturnResult(pgxmock.NewResult("DELETE", tt.affected))

			err := repo.Delete(context.Background(), "p1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func intPtr(v int) *int { return &v }
