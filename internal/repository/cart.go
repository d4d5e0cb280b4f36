package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/evermart/storefront/internal/models"
)

// CartSnapshot is the validation view of one stored cart item: the price
// captured at add time next to the variant's live price and stock. A
// dangling variant reference surfaces as VariantExists == false.
type CartSnapshot struct {
	ItemID        string
	Quantity      int
	Price         float64
	VariantExists bool
	VariantPrice  float64
	VariantStock  int
}

// PostgresCartRepository implements per-user cart persistence against a
// PostgreSQL database. One row exists per (user, product, variant); adds
// on an existing row coalesce by summing quantities.
type PostgresCartRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresCartRepository creates a PostgresCartRepository with the given
// database connection.
func NewPostgresCartRepository(db *sql.DB) *PostgresCartRepository {
	return &PostgresCartRepository{DB: db}
}

// ListEntries fetches the user's cart in insertion order, with the
// referenced product and variant documents embedded. Prices come from the
// live variant row, so a sync re-prices the client's cart.
func (r *PostgresCartRepository) ListEntries(ctx context.Context, userID string) ([]models.CartEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT ci.id, ci.quantity,
		       p.id, p.name, p.images,
		       v.id, v.color, v.size, v.price, v.stock
		  FROM cart_items ci
		  JOIN products p ON p.id = ci.product_id
		  JOIN variants v ON v.id = ci.variant_id
		 WHERE ci.user_id = $1
		 ORDER BY ci.created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListEntries: %w", err)
	}
	defer rows.Close()

	var entries []models.CartEntry
	for rows.Next() {
		var e models.CartEntry
		if err := rows.Scan(
			&e.ItemID, &e.Quantity,
			&e.Product.ID, &e.Product.Name, pq.Array(&e.Product.Images),
			&e.Variant.VariantID, &e.Variant.Color, &e.Variant.Size, &e.Variant.Price, &e.Variant.Stock,
		); err != nil {
			return nil, fmt.Errorf("ListEntries scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListEntries: %w", err)
	}
	return entries, nil
}

// UpsertItem adds quantity units of a variant to the user's cart. If a row
// for the (user, product, variant) pair exists, the quantities are summed
// instead of inserting a duplicate.
func (r *PostgresCartRepository) UpsertItem(ctx context.Context, id, userID, productID, variantID string, quantity int, price float64) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO cart_items (id, user_id, product_id, variant_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, product_id, variant_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
	`, id, userID, productID, variantID, quantity, price)
	if err != nil {
		return fmt.Errorf("UpsertItem: %w", err)
	}
	return nil
}

// SetQuantity replaces the quantity of one cart item.
func (r *PostgresCartRepository) SetQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $3, updated_at = now() WHERE id = $2 AND user_id = $1
	`, userID, itemID, quantity)
	if err != nil {
		return fmt.Errorf("SetQuantity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetQuantity: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteItem removes one cart item.
func (r *PostgresCartRepository) DeleteItem(ctx context.Context, userID, itemID string) error {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM cart_items WHERE id = $2 AND user_id = $1
	`, userID, itemID)
	if err != nil {
		return fmt.Errorf("DeleteItem: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteItem: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every item from the user's cart.
func (r *PostgresCartRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.DB.ExecContext(ctx, `
		DELETE FROM cart_items WHERE user_id = $1
	`, userID); err != nil {
		return fmt.Errorf("Clear: %w", err)
	}
	return nil
}

// Snapshots fetches the validation view of the user's cart. The left join
// keeps items whose variant has since been removed from the catalog.
func (r *PostgresCartRepository) Snapshots(ctx context.Context, userID string) ([]CartSnapshot, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT ci.id, ci.quantity, ci.price, v.id, v.price, v.stock
		  FROM cart_items ci
		  LEFT JOIN variants v ON v.id = ci.variant_id
		 WHERE ci.user_id = $1
		 ORDER BY ci.created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("Snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []CartSnapshot
	for rows.Next() {
		var s CartSnapshot
		var variantID sql.NullString
		var variantPrice sql.NullFloat64
		var variantStock sql.NullInt64
		if err := rows.Scan(&s.ItemID, &s.Quantity, &s.Price, &variantID, &variantPrice, &variantStock); err != nil {
			return nil, fmt.Errorf("Snapshots scan: %w", err)
		}
		s.VariantExists = variantID.Valid
		s.VariantPrice = variantPrice.Float64
		s.VariantStock = int(variantStock.Int64)
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Snapshots: %w", err)
	}
	return snaps, nil
}
