package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evermart/storefront/internal/middleware"
	"github.com/evermart/storefront/internal/models"
	"github.com/evermart/storefront/internal/service"
)

// OrderService defines the interface for order operations required by
// the HTTP handlers.
type OrderService interface {
	Place(ctx context.Context, userID string, lines []service.PlacedLine, shippingAddress string) (models.Order, error)
	Pay(ctx context.Context, userID, orderID, transactionID string) (models.Order, error)
	Cancel(ctx context.Context, userID, orderID string) (models.Order, error)
	Get(ctx context.Context, userID, orderID string) (models.Order, error)
	List(ctx context.Context, userID string, page, limit int) (service.HistoryPage, error)
}

// OrderHandler handles HTTP requests for order placement and history.
type OrderHandler struct {
	// OrderService performs the underlying order operations.
	OrderService OrderService
}

type placeOrderRequest struct {
	Items        []service.PlacedLine `json:"items"`
	CustomerInfo struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"customerInfo"`
	ShippingAddress struct {
		Street  string `json:"street"`
		City    string `json:"city"`
		State   string `json:"state"`
		Zip     string `json:"zip"`
		Country string `json:"country"`
	} `json:"shippingAddress"`
	PaymentMethod string `json:"paymentMethod"`
}

// Place handles POST /api/orders requests, pricing the submitted lines
// and recording a pending order.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Items) == 0 {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	a := req.ShippingAddress
	address := fmt.Sprintf("%s, %s, %s %s, %s", a.Street, a.City, a.State, a.Zip, a.Country)

	order, err := h.OrderService.Place(r.Context(), userID, req.Items, address)
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
	writeJSON(w, http.StatusCreated, map[string]any{"order": order})
}

// Pay handles POST /api/orders/{orderID}/pay requests, marking a pending
// order paid.
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	orderID := chi.URLParam(r, "orderID")

	var req struct {
		TransactionID string `json:"transactionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	order, err := h.OrderService.Pay(r.Context(), userID, orderID, req.TransactionID)
	if errors.Is(err, service.ErrOrderNotFound) {
		writeMessage(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

// Cancel handles POST /api/orders/{orderID}/cancel requests. Only
// pending orders can be cancelled; reserved stock is returned.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	orderID := chi.URLParam(r, "orderID")

	order, err := h.OrderService.Cancel(r.Context(), userID, orderID)
	if errors.Is(err, service.ErrOrderNotFound) {
		writeMessage(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

// Get handles GET /api/orders/{orderID} requests.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	orderID := chi.URLParam(r, "orderID")

	order, err := h.OrderService.Get(r.Context(), userID, orderID)
	if errors.Is(err, service.ErrOrderNotFound) {
		writeMessage(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

// List handles GET /api/orders/my-orders requests, returning one page of
// the user's order history.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	history, err := h.OrderService.List(r.Context(), userID, page, limit)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, history)
}
