// Package models defines the core data structures shared by the storefront
// client and the API server: catalog products, principals, cart payloads,
// validation verdicts, and orders.
package models

import "time"

// Principal represents the identity of a signed-in user.
type Principal struct {
	// ID is the unique identifier assigned by the backend.
	ID string `json:"id"`
	// Name is the display name of the user.
	Name string `json:"name"`
	// Email is the user's email address.
	Email string `json:"email"`
	// Phone is an optional contact number.
	Phone string `json:"phone,omitempty"`
	// Address is an optional shipping address.
	Address string `json:"address,omitempty"`
	// Role is the role tag ("customer", "admin").
	Role string `json:"role"`
}

// Variant describes one purchasable variation of a product.
type Variant struct {
	// VariantID is the unique identifier of the variant.
	VariantID string `json:"variantId"`
	// Color is the variant's color option.
	Color string `json:"color"`
	// Size is the variant's size option.
	Size string `json:"size"`
	// Price is the unit price in dollars.
	Price float64 `json:"price"`
	// Stock is the number of units currently available.
	Stock int `json:"stock"`
}

// Product represents one catalog product with its variants.
type Product struct {
	// ID is the unique identifier of the product.
	ID string `json:"id"`
	// Name is the display name of the product.
	Name string `json:"name"`
	// Description holds marketing copy for the detail page.
	Description string `json:"description,omitempty"`
	// Images holds image URLs; the first one is the thumbnail.
	Images []string `json:"images"`
	// Category is the catalog category tag.
	Category string `json:"category,omitempty"`
	// Variants lists the purchasable variations.
	Variants []Variant `json:"variants,omitempty"`
}

// CartEntry is one item of the remote cart resource as the server returns it,
// with the referenced product and variant documents embedded.
type CartEntry struct {
	// ItemID is the server-assigned identity of the cart entry.
	ItemID string `json:"itemId"`
	// Product carries the referenced product's display fields.
	Product Product `json:"product"`
	// Variant carries the referenced variant with current price and stock.
	Variant Variant `json:"variant"`
	// Quantity is the number of units in the cart.
	Quantity int `json:"quantity"`
}

// CartPayload is the body of a remote cart fetch.
type CartPayload struct {
	// Items is the authoritative list of cart entries.
	Items []CartEntry `json:"items"`
}

// Validation issue kinds reported by the cart validation endpoint.
const (
	// IssueRemoved means the item's variant no longer exists.
	IssueRemoved = "removed"
	// IssuePriceChanged means the variant's price differs from the cart's snapshot.
	IssuePriceChanged = "price-changed"
	// IssueStockReduced means available stock is below the cart quantity.
	IssueStockReduced = "stock-reduced"
)

// ValidationIssue describes one cart/remote mismatch found during validation.
type ValidationIssue struct {
	// Type is one of IssueRemoved, IssuePriceChanged, IssueStockReduced.
	Type string `json:"type"`
	// ItemID identifies the affected cart entry.
	ItemID string `json:"itemId"`
}

// ValidationResult is the verdict of a cart validation call.
type ValidationResult struct {
	// Valid reports whether the cart can proceed to checkout as-is.
	Valid bool `json:"valid"`
	// Issues lists the mismatches found; empty when Valid is true.
	Issues []ValidationIssue `json:"issues"`
}

// Order statuses as stored and reported by the backend.
const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderShipped   = "shipped"
	OrderCancelled = "cancelled"
)

// OrderItem is one line of a placed order, priced at order time.
type OrderItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	VariantID   string  `json:"variantId"`
	UnitPrice   float64 `json:"unitPrice"`
	Quantity    int     `json:"quantity"`
}

// Order represents a placed order with its payment status.
type Order struct {
	// ID is the unique identifier assigned at placement.
	ID string `json:"id"`
	// UserID is the owner of the order.
	UserID string `json:"userId"`
	// Items holds the ordered lines.
	Items []OrderItem `json:"items"`
	// Subtotal, Tax, Shipping and Total are the amounts charged.
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
	// Status is one of the Order* constants.
	Status string `json:"status"`
	// TransactionID is set once the order is paid.
	TransactionID string `json:"transactionId,omitempty"`
	// ShippingAddress is the destination captured at checkout.
	ShippingAddress string `json:"shippingAddress,omitempty"`
	// CreatedAt is the placement timestamp.
	CreatedAt time.Time `json:"createdAt"`
}
