package middleware

import (
	"context"
	"errors"
	"net/http"

	"storefront-backend/internal/domain"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/utils"
)

// AuthMiddleware rejects requests without a valid access token and puts the
// token's user into the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := utils.ExtractClaims(r)
		if err != nil {
			if errors.Is(err, utils.ErrNoToken) {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: No token provided")
				return
			}
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), claims)))
	})
}

// OptionalAuth is AuthMiddleware for routes that guests may also use. An
// absent or invalid token leaves the request anonymous.
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, err := utils.ExtractClaims(r); err == nil {
			r = r.WithContext(withUser(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

// Claims are used as-is; roles are not re-read from the database per request.
func withUser(ctx context.Context, claims *utils.Claims) context.Context {
	user := &domain.User{
		ID:       claims.UserID,
		Email:    claims.Email,
		Role:     claims.Role,
		FullName: claims.Name,
	}
	ctx = context.WithValue(ctx, domain.UserContextKey, user)

	l := logger.WithUserID(*logger.WithContext(ctx), user.ID)
	return logger.NewContext(ctx, &l)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(domain.UserContextKey).(*domain.User)
	return user, ok && user != nil
}
