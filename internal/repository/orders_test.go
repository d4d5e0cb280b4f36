package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/evermart/storefront/internal/models"
)

func setupOrderMock(t *testing.T) (*PostgresOrderRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresOrderRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func orderColumns() []string {
	return []string{
		"id", "user_id", "subtotal", "tax", "shipping", "total",
		"status", "transaction_id", "shipping_address", "created_at",
	}
}

func TestOrderCreate_Success(t *testing.T) {
	repo, mock, cleanup := setupOrderMock(t)
	defer cleanup()

	order := models.Order{
		ID:              "o1",
		UserID:          "u1",
		Subtotal:        120,
		Tax:             9.60,
		Total:           129.60,
		Status:          models.OrderPending,
		ShippingAddress: "1 Main St",
		CreatedAt:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Items: []models.OrderItem{
			{ProductID: "p1", ProductName: "Classic Tee", VariantID: "v1", UnitPrice: 60, Quantity: 2},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
		WithArgs(order.ID, order.UserID, order.Subtotal, order.Tax, order.Shipping, order.Total,
			order.Status, order.ShippingAddress, order.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
		WithArgs("o1", "p1", "Classic Tee", "v1", 60.0, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestOrderCreate_RollsBackOnItemError(t *testing.T) {
	repo, mock, cleanup := setupOrderMock(t)
	defer cleanup()

	order := models.Order{
		ID:     "o1",
		UserID: "u1",
		Status: models.OrderPending,
		Items: []models.OrderItem{
			{ProductID: "p1", VariantID: "v1", UnitPrice: 60, Quantity: 2},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
		WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	if err := repo.Create(context.Background(), order); err == nil {
		t.Fatal("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestOrderGetByID_Success(t *testing.T) {
	repo, mock, cleanup := setupOrderMock(t)
	defer cleanup()

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = $2 AND user_id = $1`)).
		WithArgs("u1", "o1").
		WillReturnRows(sqlmock.NewRows(orderColumns()).
			AddRow("o1", "u1", 120.0, 9.60, 0.0, 129.60, models.OrderPaid, "txn-1", "1 Main St", created))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM order_items WHERE order_id = $1`)).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "product_name", "variant_id", "unit_price", "quantity"}).
			AddRow("p1", "Classic Tee", "v1", 60.0, 2))

	order, err := repo.GetByID(context.Background(), "u1", "o1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != models.OrderPaid || order.TransactionID != "txn-1" {
		t.Errorf("unexpected order: %+v", order)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 {
		t.Errorf("unexpected items: %+v", order.Items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestOrderGetByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupOrderMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = $2 AND user_id = $1`)).
		WithArgs("u1", "missing").
		WillReturnRows(sqlmock.NewRows(orderColumns()))

	_, err := repo.GetByID(context.Background(), "u1", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListByUser_Success(t *testing.T) {
	repo, mock, cleanup := setupOrderMock(t)
	defer cleanup()

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM orders WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC`)).
		WithArgs("u1", 10, 0).
		WillReturnRows(sqlmock.NewRows(orderColumns()).
			AddRow("o2", "u1", 20.0, 1.60, 10.0, 31.60, models.OrderPending, nil, "1 Main St", created).
			AddRow("o1", "u1", 120.0, 9.60, 0.0, 129.60, models.OrderPaid, "txn-1", "1 Main St", created))

	orders, total, err := repo.ListByUser(context.Background(), "u1", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 12 {
		t.Errorf("expected total 12, got %d", total)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].TransactionID != "" {
		t.Errorf("expected empty transaction ID for pending order, got %q", orders[0].TransactionID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestTransition_Success(t *testing.T) {
	repo, mock, cleanup := setupOrderMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders`)).
		WithArgs("u1", "o1", models.OrderPending, models.OrderPaid, "txn-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Transition(context.Background(), "u1", "o1", models.OrderPending, models.OrderPaid, "txn-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestTransition_WrongStatus(t *testing.T) {
	repo, mock, cleanup := setupOrderMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders`)).
		WithArgs("u1", "o1", models.OrderPending, models.OrderCancelled, "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Transition(context.Background(), "u1", "o1", models.OrderPending, models.OrderCancelled, "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
