package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/evermart/storefront/internal/models"
)

// PostgresCatalogRepository implements product and variant lookups and
// stock movements against a PostgreSQL database.
type PostgresCatalogRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresCatalogRepository creates a PostgresCatalogRepository with the
// given database connection.
func NewPostgresCatalogRepository(db *sql.DB) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{DB: db}
}

// GetProduct fetches one product with all of its variants.
func (r *PostgresCatalogRepository) GetProduct(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, description, images, category FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, pq.Array(&p.Images), &p.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("GetProduct: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, color, size, price, stock FROM variants WHERE product_id = $1 ORDER BY id
	`, id)
	if err != nil {
		return models.Product{}, fmt.Errorf("GetProduct variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v models.Variant
		if err := rows.Scan(&v.VariantID, &v.Color, &v.Size, &v.Price, &v.Stock); err != nil {
			return models.Product{}, fmt.Errorf("GetProduct scan variant: %w", err)
		}
		p.Variants = append(p.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return models.Product{}, fmt.Errorf("GetProduct variants: %w", err)
	}
	return p, nil
}

// GetProductVariant fetches one variant, confirming it belongs to the
// given product.
func (r *PostgresCatalogRepository) GetProductVariant(ctx context.Context, productID, variantID string) (models.Variant, error) {
	var v models.Variant
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, color, size, price, stock FROM variants WHERE id = $1 AND product_id = $2
	`, variantID, productID).Scan(&v.VariantID, &v.Color, &v.Size, &v.Price, &v.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Variant{}, ErrNotFound
	}
	if err != nil {
		return models.Variant{}, fmt.Errorf("GetProductVariant: %w", err)
	}
	return v, nil
}

// DecrementStock reserves quantity units of a variant. When fewer units
// remain, nothing changes and ErrInsufficientStock is returned.
func (r *PostgresCatalogRepository) DecrementStock(ctx context.Context, variantID string, quantity int) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE variants SET stock = stock - $2 WHERE id = $1 AND stock >= $2
	`, variantID, quantity)
	if err != nil {
		return fmt.Errorf("DecrementStock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DecrementStock: %w", err)
	}
	if affected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// IncrementStock returns quantity units of a variant to stock, used when
// an order is cancelled.
func (r *PostgresCatalogRepository) IncrementStock(ctx context.Context, variantID string, quantity int) error {
	if _, err := r.DB.ExecContext(ctx, `
		UPDATE variants SET stock = stock + $2 WHERE id = $1
	`, variantID, quantity); err != nil {
		return fmt.Errorf("IncrementStock: %w", err)
	}
	return nil
}
