package routes

import (
	"github.com/go-chi/chi/v5"

	"Wishly/internal/api/handlers/item"
	"Wishly/internal/api/middleware"
	"Wishly/internal/core/items"
	"Wishly/internal/core/linkmeta"
)

// ItemRoutes returns the authenticated wishlist item routes.
func ItemRoutes(itemService items.Service, enricher linkmeta.Service, authMiddleware *middleware.AuthMiddleware) chi.Router {
	h := item.NewHandler(itemService, enricher)
	r := chi.NewRouter()

	r.Use(authMiddleware.RequireAuth)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/order", h.Reorder)
	r.Patch("/{itemID}", h.Update)
	r.Delete("/{itemID}", h.Delete)
	r.Post("/{itemID}/refresh", h.Refresh)

	return r
}
