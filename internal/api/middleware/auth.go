package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/good-yellow-bee/corewatch/internal/api/auth"
)

// Context keys for storing operator information.
type contextKey string

const (
	usernameKey contextKey = "username"
	claimsKey   contextKey = "claims"
)

// jsonUnauthorized writes an unauthorized error response.
func jsonUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": "invalid or expired token",
		},
	})
}

// JWTAuth returns middleware that validates JWT tokens.
func JWTAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				jsonUnauthorized(w)
				return
			}

			// Parse Bearer token
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				jsonUnauthorized(w)
				return
			}

			claims, err := jwtService.ValidateToken(parts[1])
			if err != nil {
				log.Printf("JWT auth failed for %s: %v", r.RemoteAddr, err)
				jsonUnauthorized(w)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, usernameKey, claims.Username)
			ctx = context.WithValue(ctx, claimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUsername returns the operator username from context.
func GetUsername(ctx context.Context) string {
	if v := ctx.Value(usernameKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetClaims returns the JWT claims from context.
func GetClaims(ctx context.Context) *auth.Claims {
	if v := ctx.Value(claimsKey); v != nil {
		if c, ok := v.(*auth.Claims); ok {
			return c
		}
	}
	return nil
}
