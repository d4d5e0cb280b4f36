package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/evermart/storefront/internal/middleware"
	"github.com/evermart/storefront/internal/models"
	"github.com/evermart/storefront/internal/service"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// SignIn exchanges an identity assertion for a bearer token and
	// principal.
	SignIn(ctx context.Context, assertion string) (string, models.Principal, error)
	// Me fetches the principal for the authenticated user.
	Me(ctx context.Context, userID string) (models.Principal, error)
	// UpdateProfile applies a partial principal update.
	UpdateProfile(ctx context.Context, userID, name, phone, address string) (models.Principal, error)
}

// AuthHandler handles HTTP requests for sign-in and principal management.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
}

// SignIn handles POST /api/auth/google requests.
// It expects a JSON body with a non-empty "idToken" field and responds
// with the issued bearer token and the signed-in principal.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	signed, user, err := h.AuthService.SignIn(r.Context(), req.IDToken)
	if errors.Is(err, service.ErrInvalidAssertion) {
		writeMessage(w, http.StatusBadRequest, "invalid identity assertion")
		return
	}
	if errors.Is(err, service.ErrIdentityNotAllowed) {
		writeMessage(w, http.StatusForbidden, "identity not allowed")
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": signed,
		"user":  user,
	})
}

// Me handles GET /api/auth/me requests, returning the authenticated
// user's principal.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	user, err := h.AuthService.Me(r.Context(), userID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/auth/profile requests. Empty fields in
// the body are left untouched; the merged principal is returned.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var req struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.AuthService.UpdateProfile(r.Context(), userID, req.Name, req.Phone, req.Address)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
