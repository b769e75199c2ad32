package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vishal2827/pern-stack/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// productColumns is the projection shared by every statement. Price travels as
// text so it reaches decimal.Decimal without float rounding.
const productColumns = `id, name, price::text, image, created_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// List retrieves all products, newest first. Rows sharing a timestamp keep
// insertion order through the id tie-breaker.
func (r *productRepository) List(ctx context.Context) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// Create inserts a product and returns the stored row.
func (r *productRepository) Create(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	query := `
		INSERT INTO products (name, price, image)
		VALUES ($1, $2, $3)
		RETURNING ` + productColumns

	p, err := scanProduct(r.pool.QueryRow(ctx, query, in.Name, priceArg(in.Price), in.Image))
	if err != nil {
		r.logger.Error().Err(err).Str("name", in.Name).Msg("failed to insert product")
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	return p, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	// The cast lets ids beyond the int4 column range match no row instead of
	// failing to encode.
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1::bigint`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.rowError(err, id, "query")
	}

	return p, nil
}

// Update replaces name, price and image of a product and returns the stored row.
func (r *productRepository) Update(ctx context.Context, id int64, in model.ProductInput) (*model.Product, error) {
	query := `
		UPDATE products SET name = $1, price = $2, image = $3
		WHERE id = $4::bigint
		RETURNING ` + productColumns

	p, err := scanProduct(r.pool.QueryRow(ctx, query, in.Name, priceArg(in.Price), in.Image, id))
	if err != nil {
		return nil, r.rowError(err, id, "update")
	}

	return p, nil
}

// Delete removes a product and returns the row as it was before deletion.
func (r *productRepository) Delete(ctx context.Context, id int64) (*model.Product, error) {
	query := `DELETE FROM products WHERE id = $1::bigint RETURNING ` + productColumns

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.rowError(err, id, "delete")
	}

	return p, nil
}

// rowError maps pgx.ErrNoRows to model.ErrProductNotFound and wraps anything else.
func (r *productRepository) rowError(err error, id int64, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		r.logger.Debug().Int64("product_id", id).Str("op", op).Msg("product not found")
		return model.ErrProductNotFound
	}
	r.logger.Error().Err(err).Int64("product_id", id).Str("op", op).Msg("product statement failed")
	return fmt.Errorf("failed to %s product: %w", op, err)
}

// scanProduct reads one productColumns row.
func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p     model.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.Image, &p.CreatedAt); err != nil {
		return nil, err
	}

	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("invalid stored price %q: %w", price, err)
	}
	p.Price = d

	return &p, nil
}

// priceArg renders a price as the text pgx sends for a numeric parameter.
// A nil price is passed as SQL NULL.
func priceArg(price *decimal.Decimal) any {
	if price == nil {
		return nil
	}
	return price.String()
}
