package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/evermart/storefront/internal/models"
	"github.com/evermart/storefront/internal/repository"
)

// ErrVariantNotFound is returned when an add references an unknown
// product variant.
var ErrVariantNotFound = errors.New("product variant not found")

// ErrOutOfStock is returned when an add requests more units than remain.
var ErrOutOfStock = errors.New("variant out of stock")

// CartRepository defines the persistence operations required by the
// CartService.
type CartRepository interface {
	// ListEntries fetches the user's cart in insertion order with
	// product and variant documents embedded.
	ListEntries(ctx context.Context, userID string) ([]models.CartEntry, error)
	// UpsertItem adds units of a variant, coalescing on the
	// (user, product, variant) pair.
	UpsertItem(ctx context.Context, id, userID, productID, variantID string, quantity int, price float64) error
	// SetQuantity replaces one item's quantity.
	SetQuantity(ctx context.Context, userID, itemID string, quantity int) error
	// DeleteItem removes one item.
	DeleteItem(ctx context.Context, userID, itemID string) error
	// Clear removes all of the user's items.
	Clear(ctx context.Context, userID string) error
	// Snapshots fetches the validation view of the user's cart.
	Snapshots(ctx context.Context, userID string) ([]repository.CartSnapshot, error)
}

// VariantSource resolves product variants for stock and price checks.
type VariantSource interface {
	GetProductVariant(ctx context.Context, productID, variantID string) (models.Variant, error)
}

// CartService implements the remote cart resource.
type CartService struct {
	repo    CartRepository
	catalog VariantSource
}

// NewCartService constructs a CartService with the provided repository and
// variant source.
func NewCartService(repo CartRepository, catalog VariantSource) *CartService {
	return &CartService{repo: repo, catalog: catalog}
}

// Fetch returns the authoritative cart for the user.
func (s *CartService) Fetch(ctx context.Context, userID string) (models.CartPayload, error) {
	entries, err := s.repo.ListEntries(ctx, userID)
	if err != nil {
		return models.CartPayload{}, err
	}
	if entries == nil {
		entries = []models.CartEntry{}
	}
	return models.CartPayload{Items: entries}, nil
}

// Add puts quantity units of a variant into the user's cart, verifying the
// variant exists and has enough stock. The price captured here is the
// snapshot validation later compares against.
func (s *CartService) Add(ctx context.Context, userID, productID, variantID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	variant, err := s.catalog.GetProductVariant(ctx, productID, variantID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrVariantNotFound
	}
	if err != nil {
		return err
	}
	if variant.Stock < quantity {
		return ErrOutOfStock
	}

	return s.repo.UpsertItem(ctx, uuid.NewString(), userID, productID, variantID, quantity, variant.Price)
}

// SetQuantity replaces one item's quantity.
func (s *CartService) SetQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	return s.repo.SetQuantity(ctx, userID, itemID, quantity)
}

// Remove deletes one item from the user's cart.
func (s *CartService) Remove(ctx context.Context, userID, itemID string) error {
	return s.repo.DeleteItem(ctx, userID, itemID)
}

// Clear empties the user's cart.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.repo.Clear(ctx, userID)
}

// Validate computes the validity verdict over the user's stored cart:
// items whose variant vanished are "removed", items whose live price
// differs from the add-time snapshot are "price-changed", and items whose
// quantity exceeds remaining stock are "stock-reduced".
func (s *CartService) Validate(ctx context.Context, userID string) (models.ValidationResult, error) {
	snaps, err := s.repo.Snapshots(ctx, userID)
	if err != nil {
		return models.ValidationResult{}, err
	}

	issues := []models.ValidationIssue{}
	for _, snap := range snaps {
		switch {
		case !snap.VariantExists:
			issues = append(issues, models.ValidationIssue{Type: models.IssueRemoved, ItemID: snap.ItemID})
		case snap.VariantStock < snap.Quantity:
			issues = append(issues, models.ValidationIssue{Type: models.IssueStockReduced, ItemID: snap.ItemID})
		case snap.VariantPrice != snap.Price:
			issues = append(issues, models.ValidationIssue{Type: models.IssuePriceChanged, ItemID: snap.ItemID})
		}
	}

	return models.ValidationResult{Valid: len(issues) == 0, Issues: issues}, nil
}
