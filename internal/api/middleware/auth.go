package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"

	"Wishly/internal/core/auth"
)

// Context keys for storing user information
type contextKey string

const UserIDKey contextKey = "user_id"

// SessionName is the cookie session opened after ID-token sign-in.
const SessionName = "wishly_session"

// AuthMiddleware enforces authentication for protected routes. A request
// is authenticated by the session cookie, or by a Bearer ID token for
// clients that don't hold a session (e.g. first call after sign-in).
type AuthMiddleware struct {
	verifier *auth.TokenVerifier
	store    sessions.Store
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(verifier *auth.TokenVerifier, store sessions.Store) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, store: store}
}

// RequireAuth ensures the request is authenticated. If it is, the user ID
// is injected into the request context; otherwise a 401 is returned.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := m.sessionUserID(r); userID != "" {
			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeAuthError(w, "authentication required")
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeAuthError(w, "invalid Authorization header format, expected: Bearer <token>")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			log.Printf("[AUTH_FAILURE] type=token_verification ip=%s method=%s path=%s error=%v",
				r.RemoteAddr, r.Method, r.URL.Path, err)
			writeAuthError(w, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), claims.UserID)))
	})
}

// sessionUserID returns the user ID held by the session cookie, or "".
func (m *AuthMiddleware) sessionUserID(r *http.Request) string {
	session, err := m.store.Get(r, SessionName)
	if err != nil {
		return ""
	}
	userID, _ := session.Values["user_id"].(string)
	return userID
}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetAuthenticatedUserID extracts the authenticated user ID from the
// request context. Returns "" if the request was not authenticated.
func GetAuthenticatedUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "AuthenticationRequired",
		"message": message,
	})
}
