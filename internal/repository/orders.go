package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/evermart/storefront/internal/models"
)

// PostgresOrderRepository implements order persistence against a
// PostgreSQL database.
type PostgresOrderRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresOrderRepository creates a PostgresOrderRepository with the
// given database connection.
func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{DB: db}
}

// Create inserts an order and its lines in one transaction.
func (r *PostgresOrderRepository) Create(ctx context.Context, order models.Order) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Create begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, subtotal, tax, shipping, total, status, shipping_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, order.ID, order.UserID, order.Subtotal, order.Tax, order.Shipping, order.Total,
		order.Status, order.ShippingAddress, order.CreatedAt); err != nil {
		return fmt.Errorf("Create order: %w", err)
	}

	for _, item := range order.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, variant_id, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, order.ID, item.ProductID, item.ProductName, item.VariantID, item.UnitPrice, item.Quantity); err != nil {
			return fmt.Errorf("Create order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Create commit: %w", err)
	}
	return nil
}

// GetByID fetches one of the user's orders with its lines.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, userID, orderID string) (models.Order, error) {
	var o models.Order
	var txnID sql.NullString
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, subtotal, tax, shipping, total, status, transaction_id, shipping_address, created_at
		  FROM orders WHERE id = $2 AND user_id = $1
	`, userID, orderID).Scan(&o.ID, &o.UserID, &o.Subtotal, &o.Tax, &o.Shipping, &o.Total,
		&o.Status, &txnID, &o.ShippingAddress, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("GetByID: %w", err)
	}
	o.TransactionID = txnID.String

	rows, err := r.DB.QueryContext(ctx, `
		SELECT product_id, product_name, variant_id, unit_price, quantity
		  FROM order_items WHERE order_id = $1
	`, orderID)
	if err != nil {
		return models.Order{}, fmt.Errorf("GetByID items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.VariantID, &item.UnitPrice, &item.Quantity); err != nil {
			return models.Order{}, fmt.Errorf("GetByID scan item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return models.Order{}, fmt.Errorf("GetByID items: %w", err)
	}
	return o, nil
}

// ListByUser fetches one page of the user's order summaries, newest first,
// plus the total order count for pagination.
func (r *PostgresOrderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Order, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders WHERE user_id = $1
	`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListByUser count: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, subtotal, tax, shipping, total, status, transaction_id, shipping_address, created_at
		  FROM orders WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByUser: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		var txnID sql.NullString
		if err := rows.Scan(&o.ID, &o.UserID, &o.Subtotal, &o.Tax, &o.Shipping, &o.Total,
			&o.Status, &txnID, &o.ShippingAddress, &o.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("ListByUser scan: %w", err)
		}
		o.TransactionID = txnID.String
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListByUser: %w", err)
	}
	return orders, total, nil
}

// Transition moves one of the user's orders from one status to another,
// optionally recording a payment transaction ID. A missing order or a
// wrong current status both report ErrNotFound.
func (r *PostgresOrderRepository) Transition(ctx context.Context, userID, orderID, from, to, transactionID string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE orders
		   SET status = $4, transaction_id = COALESCE(NULLIF($5, ''), transaction_id)
		 WHERE id = $2 AND user_id = $1 AND status = $3
	`, userID, orderID, from, to, transactionID)
	if err != nil {
		return fmt.Errorf("Transition: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Transition: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
