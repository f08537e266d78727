// Package session provides sign-in and sign-out handlers. Authentication
// itself happens against the external identity provider; these handlers
// exchange a verified ID token for a cookie session.
package session

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/sessions"

	"Wishly/internal/api/middleware"
	"Wishly/internal/core/auth"
	"Wishly/internal/core/linkmeta"
)

// Handler handles session lifecycle requests.
type Handler struct {
	verifier *auth.TokenVerifier
	store    sessions.Store
	enricher linkmeta.Service
}

// NewHandler creates a new session handler.
func NewHandler(verifier *auth.TokenVerifier, store sessions.Store, enricher linkmeta.Service) *Handler {
	return &Handler{verifier: verifier, store: store, enricher: enricher}
}

// SignIn handles POST /api/session
// Verifies the identity provider's ID token and opens a session.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
		http.Error(w, "idToken is required", http.StatusBadRequest)
		return
	}

	claims, err := h.verifier.Verify(r.Context(), req.IDToken)
	if err != nil {
		log.Printf("[AUTH_FAILURE] type=sign_in ip=%s error=%v", r.RemoteAddr, err)
		http.Error(w, "invalid ID token", http.StatusUnauthorized)
		return
	}

	session, _ := h.store.Get(r, middleware.SessionName)
	session.Values["user_id"] = claims.UserID
	if err := session.Save(r, w); err != nil {
		log.Printf("[SESSION] failed to save session: %v", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"userId": claims.UserID,
		"email":  claims.Email,
		"name":   claims.Name,
	})
}

// SignOut handles DELETE /api/session
// Clears the session and tears down the runtime metadata cache.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	session, _ := h.store.Get(r, middleware.SessionName)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		log.Printf("[SESSION] failed to clear session: %v", err)
	}

	if h.enricher != nil {
		h.enricher.Reset()
	}

	w.WriteHeader(http.StatusNoContent)
}
