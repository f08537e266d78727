package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	sessionHandler "Wishly/internal/api/handlers/session"
	"Wishly/internal/core/auth"
	"Wishly/internal/core/linkmeta"
)

// SessionRoutes returns the sign-in / sign-out routes.
func SessionRoutes(verifier *auth.TokenVerifier, store sessions.Store, enricher linkmeta.Service) chi.Router {
	h := sessionHandler.NewHandler(verifier, store, enricher)
	r := chi.NewRouter()

	r.Post("/", h.SignIn)
	r.Delete("/", h.SignOut)

	return r
}
