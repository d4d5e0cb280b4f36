package service

import (
	"context"

	"github.com/evermart/storefront/internal/models"
)

// CatalogRepository defines the persistence operations required by the
// CatalogService.
type CatalogRepository interface {
	GetProduct(ctx context.Context, id string) (models.Product, error)
	GetProductVariant(ctx context.Context, productID, variantID string) (models.Variant, error)
}

// Availability is the verdict of a variant stock check.
type Availability struct {
	Available bool `json:"available"`
	Stock     int  `json:"stock"`
}

// CatalogService implements product lookups and availability checks.
type CatalogService struct {
	repo CatalogRepository
}

// NewCatalogService constructs a CatalogService with the provided repository.
func NewCatalogService(repo CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// Product fetches one product with its variants.
func (s *CatalogService) Product(ctx context.Context, id string) (models.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// CheckAvailability reports whether quantity units of a variant remain.
func (s *CatalogService) CheckAvailability(ctx context.Context, productID, variantID string, quantity int) (Availability, error) {
	variant, err := s.repo.GetProductVariant(ctx, productID, variantID)
	if err != nil {
		return Availability{}, err
	}
	return Availability{Available: variant.Stock >= quantity, Stock: variant.Stock}, nil
}
