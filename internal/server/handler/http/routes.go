package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/evermart/storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves
// the storefront API. It applies JSON content-type enforcement and
// request logging, and mounts the auth, catalog, cart, and order
// endpoints under /api.
//
// Routes:
//
//	POST /api/auth/google                              → authHandler.SignIn
//	GET  /api/products/{productID}                     → catalogHandler.Product
//	POST /api/products/{productID}/check-availability  → catalogHandler.CheckAvailability
//
// Protected by bearer authentication:
//
//	GET    /api/auth/me                  → authHandler.Me
//	PUT    /api/auth/profile             → authHandler.UpdateProfile
//	GET    /api/cart                     → cartHandler.Fetch
//	POST   /api/cart/add                 → cartHandler.Add
//	PUT    /api/cart/items/{itemID}      → cartHandler.SetQuantity
//	DELETE /api/cart/items/{itemID}      → cartHandler.Remove
//	DELETE /api/cart/clear               → cartHandler.Clear
//	POST   /api/cart/validate            → cartHandler.Validate
//	POST   /api/orders                   → orderHandler.Place
//	GET    /api/orders/my-orders         → orderHandler.List
//	GET    /api/orders/{orderID}         → orderHandler.Get
//	POST   /api/orders/{orderID}/pay     → orderHandler.Pay
//	POST   /api/orders/{orderID}/cancel  → orderHandler.Cancel
func NewRouter(
	authHandler *AuthHandler,
	cartHandler *CartHandler,
	catalogHandler *CatalogHandler,
	orderHandler *OrderHandler,
	verifier middleware.TokenVerifier,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Mount API routes
	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/google", authHandler.SignIn)
		r.Get("/products/{productID}", catalogHandler.Product)
		r.Post("/products/{productID}/check-availability", catalogHandler.CheckAvailability)

		// Protected group: requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(verifier))

			r.Get("/auth/me", authHandler.Me)
			r.Put("/auth/profile", authHandler.UpdateProfile)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.Fetch)
				r.Post("/add", cartHandler.Add)
				r.Put("/items/{itemID}", cartHandler.SetQuantity)
				r.Delete("/items/{itemID}", cartHandler.Remove)
				r.Delete("/clear", cartHandler.Clear)
				r.Post("/validate", cartHandler.Validate)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", orderHandler.Place)
				r.Get("/my-orders", orderHandler.List)
				r.Get("/{orderID}", orderHandler.Get)
				r.Post("/{orderID}/pay", orderHandler.Pay)
				r.Post("/{orderID}/cancel", orderHandler.Cancel)
			})
		})
	})

	return r
}
