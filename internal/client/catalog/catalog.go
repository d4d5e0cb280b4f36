// Package catalog provides the read-only product client used when adding
// items to the cart: product lookup and variant availability checks.
package catalog

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

// Availability is the verdict of a variant stock check.
type Availability struct {
	// Available reports whether the requested quantity is in stock.
	Available bool `json:"available"`
	// Stock is the number of units currently available.
	Stock int `json:"stock"`
}

// Client issues catalog lookups against the API.
type Client struct {
	remote Remote
}

// New constructs a Client.
func New(remote Remote) *Client {
	return &Client{remote: remote}
}

// Product fetches one product with its variants.
func (c *Client) Product(ctx context.Context, productID string) (models.Product, error) {
	var resp struct {
		Product models.Product `json:"product"`
	}
	if err := c.remote.Get(ctx, "/products/"+productID, &resp); err != nil {
		return models.Product{}, fmt.Errorf("get product %s: %w", productID, err)
	}
	return resp.Product, nil
}

// CheckAvailability asks whether the given quantity of a variant is in stock.
func (c *Client) CheckAvailability(ctx context.Context, productID, variantID string, quantity int) (Availability, error) {
	req := struct {
		VariantID string `json:"variantId"`
		Quantity  int    `json:"quantity"`
	}{VariantID: variantID, Quantity: quantity}

	var resp Availability
	if err := c.remote.Post(ctx, "/products/"+productID+"/check-availability", req, &resp); err != nil {
		return Availability{}, fmt.Errorf("check availability %s/%s: %w", productID, variantID, err)
	}
	return resp, nil
}
