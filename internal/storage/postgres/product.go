package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopfront/promo-pricing/internal/domain/catalog"
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByID loads a product and its variants in declared order. Returns
// catalog.ErrNotFound when the product does not exist.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	var p catalog.Product
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, price FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrapf(err, "query product %q", id)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, price
		   FROM product_variants
		  WHERE product_id = $1
		  ORDER BY position, id`, id)
	if err != nil {
		return nil, errors.Wrapf(err, "query variants of %q", id)
	}
	defer rows.Close()

	for rows.Next() {
		var v catalog.Variant
		if err := rows.Scan(&v.ID, &v.Name, &v.Price); err != nil {
			return nil, errors.Wrap(err, "scan variant")
		}
		p.Variants = append(p.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate variants")
	}

	return &p, nil
}
