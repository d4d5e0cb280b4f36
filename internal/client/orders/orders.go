// Package orders provides the client for order placement, payment,
// cancellation, and history listing.
package orders

import (
	"context"
	"fmt"

	"github.com/evermart/storefront/internal/models"
)

// Remote defines the API calls the client needs.
type Remote interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// CustomerInfo is the contact block captured at checkout.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// ShippingAddress is the destination captured at checkout.
type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// PlacedItem references one purchased variant in a placement request.
type PlacedItem struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// PlaceRequest is the body of an order placement.
type PlaceRequest struct {
	Items           []PlacedItem    `json:"items"`
	CustomerInfo    CustomerInfo    `json:"customerInfo"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
}

// Page is one page of the caller's order history.
type Page struct {
	Orders []models.Order `json:"orders"`
	Total  int            `json:"total"`
	Pages  int            `json:"pages"`
}

// Client issues order operations against the API.
type Client struct {
	remote Remote
}

// New constructs a Client.
func New(remote Remote) *Client {
	return &Client{remote: remote}
}

// Place submits a new order built from the given items.
func (c *Client) Place(ctx context.Context, req PlaceRequest) (models.Order, error) {
	var resp struct {
		Order models.Order `json:"order"`
	}
	if err := c.remote.Post(ctx, "/orders", req, &resp); err != nil {
		return models.Order{}, fmt.Errorf("place order: %w", err)
	}
	return resp.Order, nil
}

// Pay marks an order paid with the given transaction reference. Payment
// processing itself is an opaque remote concern.
func (c *Client) Pay(ctx context.Context, orderID, transactionID string) (models.Order, error) {
	req := struct {
		TransactionID string `json:"transactionId"`
	}{TransactionID: transactionID}
	var resp struct {
		Order models.Order `json:"order"`
	}
	if err := c.remote.Post(ctx, "/orders/"+orderID+"/pay", req, &resp); err != nil {
		return models.Order{}, fmt.Errorf("pay order %s: %w", orderID, err)
	}
	return resp.Order, nil
}

// Cancel cancels a pending order.
func (c *Client) Cancel(ctx context.Context, orderID string) (models.Order, error) {
	var resp struct {
		Order models.Order `json:"order"`
	}
	if err := c.remote.Post(ctx, "/orders/"+orderID+"/cancel", nil, &resp); err != nil {
		return models.Order{}, fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	return resp.Order, nil
}

// Get fetches one order by ID.
func (c *Client) Get(ctx context.Context, orderID string) (models.Order, error) {
	var resp struct {
		Order models.Order `json:"order"`
	}
	if err := c.remote.Get(ctx, "/orders/"+orderID, &resp); err != nil {
		return models.Order{}, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return resp.Order, nil
}

// List fetches one page of the caller's order history, newest first.
func (c *Client) List(ctx context.Context, page int) (Page, error) {
	if page < 1 {
		page = 1
	}
	var resp Page
	if err := c.remote.Get(ctx, fmt.Sprintf("/orders/my-orders?page=%d&limit=10", page), &resp); err != nil {
		return Page{}, fmt.Errorf("list orders: %w", err)
	}
	return resp, nil
}
