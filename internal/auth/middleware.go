package auth

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// AuthContextKey is the key for storing AuthContext in request context
	AuthContextKey ContextKey = "authContext"
)

// Middleware extracts and injects the authentication context.
// It verifies the bearer token, checks the identity against the directory,
// and injects the resulting AuthContext into the request.
//
// If any step fails (missing token, invalid token, deactivated user),
// the request proceeds without auth context. Handlers decide whether auth
// is required; RequireAuth enforces it for protected routes.
func Middleware(authService *AuthService, tokens *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				slog.Debug("no authorization header provided")
				next.ServeHTTP(w, r)
				return
			}

			rawToken, err := ExtractBearerToken(authHeader)
			if err != nil {
				slog.Warn("malformed authorization header", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Parse(rawToken)
			if err != nil {
				slog.Warn("failed to verify token", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			authCtx, err := authService.ResolveIdentity(r.Context(), claims)
			if err != nil {
				slog.Warn("failed to resolve token identity", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), AuthContextKey, authCtx)
			r = r.WithContext(ctx)

			slog.Debug("auth context injected successfully", "user_id", authCtx.UserID)

			next.ServeHTTP(w, r)
		})
	}
}

// GetAuthContext retrieves the AuthContext from a request context.
// Returns nil if the request is unauthenticated.
func GetAuthContext(ctx context.Context) *AuthContext {
	authCtx, ok := ctx.Value(AuthContextKey).(*AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}

// RequireAuth wraps a handler and rejects unauthenticated requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetAuthContext(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized","message":"authentication required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
