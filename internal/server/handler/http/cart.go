package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evermart/storefront/internal/middleware"
	"github.com/evermart/storefront/internal/models"
	"github.com/evermart/storefront/internal/repository"
	"github.com/evermart/storefront/internal/service"
)

// CartService defines the interface for cart operations required by the
// HTTP handlers.
type CartService interface {
	Fetch(ctx context.Context, userID string) (models.CartPayload, error)
	Add(ctx context.Context, userID, productID, variantID string, quantity int) error
	SetQuantity(ctx context.Context, userID, itemID string, quantity int) error
	Remove(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
	Validate(ctx context.Context, userID string) (models.ValidationResult, error)
}

// CartHandler handles HTTP requests for the server-side cart.
type CartHandler struct {
	// CartService performs the underlying cart operations.
	CartService CartService
}

// Fetch handles GET /api/cart requests, returning the full server-side
// cart for the authenticated user.
func (h *CartHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	cart, err := h.CartService.Fetch(r.Context(), userID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cart": cart})
}

// Add handles POST /api/cart/add requests. On success the caller is
// expected to refetch the cart for the merged server state.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var req struct {
		ProductID string `json:"productId"`
		VariantID string `json:"variantId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" || req.VariantID == "" {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	err := h.CartService.Add(r.Context(), userID, req.ProductID, req.VariantID, req.Quantity)
	if errors.Is(err, service.ErrVariantNotFound) {
		writeMessage(w, http.StatusNotFound, "product variant not found")
		return
	}
	if errors.Is(err, service.ErrOutOfStock) {
		writeMessage(w, http.StatusConflict, "insufficient stock")
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeMessage(w, http.StatusOK, "item added")
}

// SetQuantity handles PUT /api/cart/items/{itemID} requests.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	itemID := chi.URLParam(r, "itemID")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity < 1 {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	err := h.CartService.SetQuantity(r.Context(), userID, itemID, req.Quantity)
	if errors.Is(err, repository.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "cart item not found")
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeMessage(w, http.StatusOK, "quantity updated")
}

// Remove handles DELETE /api/cart/items/{itemID} requests.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	itemID := chi.URLParam(r, "itemID")

	err := h.CartService.Remove(r.Context(), userID, itemID)
	if errors.Is(err, repository.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "cart item not found")
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeMessage(w, http.StatusOK, "item removed")
}

// Clear handles DELETE /api/cart/clear requests.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	if err := h.CartService.Clear(r.Context(), userID); err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeMessage(w, http.StatusOK, "cart cleared")
}

// Validate handles POST /api/cart/validate requests, checking every cart
// item against the live catalog.
func (h *CartHandler) Validate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	result, err := h.CartService.Validate(r.Context(), userID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
