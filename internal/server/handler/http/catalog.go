package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evermart/storefront/internal/models"
	"github.com/evermart/storefront/internal/repository"
	"github.com/evermart/storefront/internal/service"
)

// CatalogService defines the interface for catalog reads required by the
// HTTP handlers.
type CatalogService interface {
	Product(ctx context.Context, id string) (models.Product, error)
	CheckAvailability(ctx context.Context, productID, variantID string, quantity int) (service.Availability, error)
}

// CatalogHandler handles HTTP requests for product lookups.
type CatalogHandler struct {
	// CatalogService performs the underlying catalog reads.
	CatalogService CatalogService
}

// Product handles GET /api/products/{productID} requests.
func (h *CatalogHandler) Product(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	product, err := h.CatalogService.Product(r.Context(), productID)
	if errors.Is(err, repository.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

// CheckAvailability handles POST /api/products/{productID}/check-availability
// requests, reporting whether the requested quantity of a variant is in
// stock.
func (h *CatalogHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req struct {
		VariantID string `json:"variantId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VariantID == "" {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	availability, err := h.CatalogService.CheckAvailability(r.Context(), productID, req.VariantID, req.Quantity)
	if errors.Is(err, repository.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "product variant not found")
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, availability)
}
