package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/devaalay/asset-service/internal/utils/jwt"
	"github.com/devaalay/asset-service/internal/utils/response"
)

type contextKey string

const AdminIDKey contextKey = "adminID"

// AuthMiddleware validates the bearer token and puts the admin ID into the
// request context.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.ErrorWithStatus(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.ErrorWithStatus(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == "" {
				response.ErrorWithStatus(w, http.StatusUnauthorized, "Token not provided")
				return
			}

			adminID, err := jwt.ExtractAdminIDFromToken(token, jwtSecret)
			if err != nil {
				response.ErrorWithStatus(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), AdminIDKey, adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdminIDFromContext extracts the authenticated admin ID.
func GetAdminIDFromContext(ctx context.Context) (string, bool) {
	adminID, ok := ctx.Value(AdminIDKey).(string)
	return adminID, ok
}
