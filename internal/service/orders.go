package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evermart/storefront/internal/models"
	"github.com/evermart/storefront/internal/repository"
)

// Server-side pricing mirrors the client's cart totals so the charged
// amounts match what the storefront displayed.
const (
	orderTaxRate          = 0.08
	orderFreeShippingOver = 100.0
	orderShippingFee      = 10.0
)

// ErrOrderNotFound is returned when an order does not exist, belongs to
// another user, or is not in the status the operation requires.
var ErrOrderNotFound = errors.New("order not found")

// PlacedLine references one purchased variant in a placement request.
type PlacedLine struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// OrderRepository defines the persistence operations required by the
// OrderService.
type OrderRepository interface {
	Create(ctx context.Context, order models.Order) error
	GetByID(ctx context.Context, userID, orderID string) (models.Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Order, int, error)
	Transition(ctx context.Context, userID, orderID, from, to, transactionID string) error
}

// StockKeeper resolves variants and moves stock for order placement and
// cancellation.
type StockKeeper interface {
	GetProduct(ctx context.Context, id string) (models.Product, error)
	GetProductVariant(ctx context.Context, productID, variantID string) (models.Variant, error)
	DecrementStock(ctx context.Context, variantID string, quantity int) error
	IncrementStock(ctx context.Context, variantID string, quantity int) error
}

// OrderService implements order placement, payment, cancellation, and
// history listing.
type OrderService struct {
	orders  OrderRepository
	catalog StockKeeper
	now     func() time.Time
}

// NewOrderService constructs an OrderService with the provided
// repositories.
func NewOrderService(orders OrderRepository, catalog StockKeeper) *OrderService {
	return &OrderService{orders: orders, catalog: catalog, now: time.Now}
}

// Place prices the requested lines from the live catalog, reserves stock,
// and records a pending order. Stock reserved before a failing line is
// released again.
func (s *OrderService) Place(ctx context.Context, userID string, lines []PlacedLine, shippingAddress string) (models.Order, error) {
	if len(lines) == 0 {
		return models.Order{}, errors.New("order has no items")
	}

	order := models.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Status:          models.OrderPending,
		ShippingAddress: shippingAddress,
		CreatedAt:       s.now(),
	}

	var reserved []models.OrderItem
	release := func() {
		for _, item := range reserved {
			_ = s.catalog.IncrementStock(ctx, item.VariantID, item.Quantity)
		}
	}

	for _, line := range lines {
		if line.Quantity < 1 {
			release()
			return models.Order{}, fmt.Errorf("invalid quantity for variant %s", line.VariantID)
		}

		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			release()
			if errors.Is(err, repository.ErrNotFound) {
				return models.Order{}, ErrVariantNotFound
			}
			return models.Order{}, err
		}
		variant, err := s.catalog.GetProductVariant(ctx, line.ProductID, line.VariantID)
		if err != nil {
			release()
			if errors.Is(err, repository.ErrNotFound) {
				return models.Order{}, ErrVariantNotFound
			}
			return models.Order{}, err
		}

		if err := s.catalog.DecrementStock(ctx, line.VariantID, line.Quantity); err != nil {
			release()
			if errors.Is(err, repository.ErrInsufficientStock) {
				return models.Order{}, ErrOutOfStock
			}
			return models.Order{}, err
		}

		item := models.OrderItem{
			ProductID:   line.ProductID,
			ProductName: product.Name,
			VariantID:   line.VariantID,
			UnitPrice:   variant.Price,
			Quantity:    line.Quantity,
		}
		reserved = append(reserved, item)
		order.Items = append(order.Items, item)
		order.Subtotal += variant.Price * float64(line.Quantity)
	}

	order.Tax = order.Subtotal * orderTaxRate
	if order.Subtotal <= orderFreeShippingOver {
		order.Shipping = orderShippingFee
	}
	order.Total = order.Subtotal + order.Tax + order.Shipping

	if err := s.orders.Create(ctx, order); err != nil {
		release()
		return models.Order{}, err
	}
	return order, nil
}

// Pay marks a pending order paid with the given transaction reference.
func (s *OrderService) Pay(ctx context.Context, userID, orderID, transactionID string) (models.Order, error) {
	err := s.orders.Transition(ctx, userID, orderID, models.OrderPending, models.OrderPaid, transactionID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, err
	}
	return s.Get(ctx, userID, orderID)
}

// Cancel cancels a pending order and returns its units to stock.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID string) (models.Order, error) {
	order, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return models.Order{}, err
	}

	err = s.orders.Transition(ctx, userID, orderID, models.OrderPending, models.OrderCancelled, "")
	if errors.Is(err, repository.ErrNotFound) {
		return models.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, err
	}

	for _, item := range order.Items {
		_ = s.catalog.IncrementStock(ctx, item.VariantID, item.Quantity)
	}
	return s.Get(ctx, userID, orderID)
}

// Get fetches one of the user's orders.
func (s *OrderService) Get(ctx context.Context, userID, orderID string) (models.Order, error) {
	order, err := s.orders.GetByID(ctx, userID, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Order{}, ErrOrderNotFound
	}
	return order, err
}

// HistoryPage is one page of a user's order history.
type HistoryPage struct {
	Orders []models.Order `json:"orders"`
	Total  int            `json:"total"`
	Pages  int            `json:"pages"`
}

// List fetches one page of the user's order history, newest first.
func (s *OrderService) List(ctx context.Context, userID string, page, limit int) (HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	orders, total, err := s.orders.ListByUser(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return HistoryPage{}, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return HistoryPage{
		Orders: orders,
		Total:  total,
		Pages:  (total + limit - 1) / limit,
	}, nil
}
