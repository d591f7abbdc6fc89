package catalog

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("not found")

// invalid_text_representation, raised for ids that are not UUIDs.
const pgInvalidTextRepresentation = "22P02"

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Repository is the catalog store: products with their images, attributes
// and variants, always read and written as a whole.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id string, p Product) error
	Delete(ctx context.Context, id string) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectProducts = `
	SELECT id::text, name, COALESCE(short_description, ''), COALESCE(long_description, ''),
		type, price, sku, COALESCE(main_image, ''), created_at
	FROM products`

// List returns every product, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, selectProducts+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if err := r.loadChildren(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, selectProducts+` WHERE id = $1`, id))
	if err != nil {
		if isMissing(err) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("select product: %w", err)
	}

	products := []Product{p}
	if err := r.loadChildren(ctx, products); err != nil {
		return Product{}, err
	}
	return products[0], nil
}

// Create inserts the product and all of its children in one transaction and
// returns it with the generated id and creation time.
func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Product{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO products (name, short_description, long_description, type, price, sku, main_image)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		RETURNING id::text, created_at
	`, p.Name, p.ShortDescription, p.LongDescription, string(p.Type), p.Price, p.SKU, p.MainImage).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}

	if err := insertChildren(ctx, tx, &p); err != nil {
		return Product{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Product{}, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

// Update overwrites the product row and replaces its child sets.
func (r *PostgresRepository) Update(ctx context.Context, id string, p Product) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE products
		SET name=$2, short_description=$3, long_description=$4, type=$5, price=$6, sku=$7,
			main_image=NULLIF($8, ''), updated_at=now()
		WHERE id=$1
	`, id, p.Name, p.ShortDescription, p.LongDescription, string(p.Type), p.Price, p.SKU, p.MainImage)
	if err != nil {
		if isMissing(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	// variant attribute rows cascade with their variants
	for _, table := range []string{"product_images", "product_attributes", "product_variants"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE product_id=$1`, id); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	p.ID = id
	if err := insertChildren(ctx, tx, &p); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		if isMissing(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p   Product
		typ string
	)
	err := row.Scan(&p.ID, &p.Name, &p.ShortDescription, &p.LongDescription,
		&typ, &p.Price, &p.SKU, &p.MainImage, &p.CreatedAt)
	if err != nil {
		return Product{}, err
	}
	p.Type = ProductType(typ)
	p.GalleryImages = []string{}
	return p, nil
}

func isMissing(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepresentation
}

// loadChildren fetches images, attributes and variants for all products in
// batched queries and attaches them in position order.
func (r *PostgresRepository) loadChildren(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]string, len(products))
	byID := make(map[string]*Product, len(products))
	for i := range products {
		ids[i] = products[i].ID
		byID[products[i].ID] = &products[i]
	}

	if err := r.loadImages(ctx, ids, byID); err != nil {
		return err
	}
	if err := r.loadAttributes(ctx, ids, byID); err != nil {
		return err
	}
	return r.loadVariants(ctx, ids, byID)
}

func (r *PostgresRepository) loadImages(ctx context.Context, ids []string, byID map[string]*Product) error {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id::text, url
		FROM product_images
		WHERE product_id = ANY($1::uuid[])
		ORDER BY product_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("select product_images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID, url string
		if err := rows.Scan(&productID, &url); err != nil {
			return fmt.Errorf("scan product_image: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.GalleryImages = append(p.GalleryImages, url)
		}
	}
	return rows.Err()
}

func (r *PostgresRepository) loadAttributes(ctx context.Context, ids []string, byID map[string]*Product) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, product_id::text, name, allowed_values, visible, variation
		FROM product_attributes
		WHERE product_id = ANY($1::uuid[])
		ORDER BY product_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("select product_attributes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a         ProductAttribute
			productID string
		)
		if err := rows.Scan(&a.ID, &productID, &a.Name, &a.Values, &a.Visible, &a.Variation); err != nil {
			return fmt.Errorf("scan product_attribute: %w", err)
		}
		if a.Values == nil {
			a.Values = []string{}
		}
		if p, ok := byID[productID]; ok {
			p.Attributes = append(p.Attributes, a)
		}
	}
	return rows.Err()
}

func (r *PostgresRepository) loadVariants(ctx context.Context, ids []string, byID map[string]*Product) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, product_id::text, sku, price, stock, COALESCE(image, '')
		FROM product_variants
		WHERE product_id = ANY($1::uuid[])
		ORDER BY product_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("select product_variants: %w", err)
	}

	type ref struct {
		product *Product
		index   int
	}
	refs := make(map[string]ref)
	variantIDs := []string{}

	for rows.Next() {
		var (
			v         ProductVariant
			productID string
		)
		if err := rows.Scan(&v.ID, &productID, &v.SKU, &v.Price, &v.Stock, &v.Image); err != nil {
			rows.Close()
			return fmt.Errorf("scan product_variant: %w", err)
		}
		v.Attributes = map[string]string{}
		p, ok := byID[productID]
		if !ok {
			continue
		}
		p.Variants = append(p.Variants, v)
		refs[v.ID] = ref{product: p, index: len(p.Variants) - 1}
		variantIDs = append(variantIDs, v.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}

	if len(variantIDs) == 0 {
		return nil
	}

	attrRows, err := r.pool.Query(ctx, `
		SELECT variant_id::text, name, value
		FROM product_variant_attributes
		WHERE variant_id = ANY($1::uuid[])
	`, variantIDs)
	if err != nil {
		return fmt.Errorf("select product_variant_attributes: %w", err)
	}
	defer attrRows.Close()

	for attrRows.Next() {
		var variantID, name, value string
		if err := attrRows.Scan(&variantID, &name, &value); err != nil {
			return fmt.Errorf("scan product_variant_attribute: %w", err)
		}
		if ref, ok := refs[variantID]; ok {
			ref.product.Variants[ref.index].Attributes[name] = value
		}
	}
	return attrRows.Err()
}

// insertChildren writes images, attributes and variants for p.ID, keeping
// list order in the position columns. Generated child ids are set on copies
// of p's slices, never on the caller's.
func insertChildren(ctx context.Context, tx pgx.Tx, p *Product) error {
	p.Attributes = slices.Clone(p.Attributes)
	p.Variants = slices.Clone(p.Variants)

	for i, url := range p.GalleryImages {
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_images (product_id, url, position)
			VALUES ($1, $2, $3)
		`, p.ID, url, i); err != nil {
			return fmt.Errorf("insert product_image: %w", err)
		}
	}

	for i := range p.Attributes {
		a := &p.Attributes[i]
		if err := tx.QueryRow(ctx, `
			INSERT INTO product_attributes (product_id, name, allowed_values, visible, variation, position)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id::text
		`, p.ID, a.Name, a.Values, a.Visible, a.Variation, i).Scan(&a.ID); err != nil {
			return fmt.Errorf("insert product_attribute: %w", err)
		}
	}

	for i := range p.Variants {
		v := &p.Variants[i]
		if err := tx.QueryRow(ctx, `
			INSERT INTO product_variants (product_id, sku, price, stock, image, position)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
			RETURNING id::text
		`, p.ID, v.SKU, v.Price, v.Stock, v.Image, i).Scan(&v.ID); err != nil {
			return fmt.Errorf("insert product_variant: %w", err)
		}

		for _, name := range slices.Sorted(maps.Keys(v.Attributes)) {
			if _, err := tx.Exec(ctx, `
				INSERT INTO product_variant_attributes (variant_id, name, value)
				VALUES ($1, $2, $3)
			`, v.ID, name, v.Attributes[name]); err != nil {
				return fmt.Errorf("insert product_variant_attribute: %w", err)
			}
		}
	}
	return nil
}
