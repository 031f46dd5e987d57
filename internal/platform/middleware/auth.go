package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"custos/internal/jwttoken"
	"custos/pkg/requestcontext"
)

// TokenValidator defines the interface for validating bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwttoken.Claims, error)
}

type roleKey struct{}

// Role retrieves the authenticated role from the context.
func Role(ctx context.Context) jwttoken.Role {
	if role, ok := ctx.Value(roleKey{}).(jwttoken.Role); ok {
		return role
	}
	return ""
}

// WithRole injects a role into the context; exported for handler tests.
func WithRole(ctx context.Context, role jwttoken.Role) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// RequireAuth validates the bearer token and stores subject and role on the
// request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok {
				unauthorized(w)
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				unauthorized(w)
				return
			}
			ctx = requestcontext.WithSubject(ctx, claims.Subject)
			ctx = WithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireGuardian rejects requests whose token is not a guardian token. Mount
// after RequireAuth on policy write routes.
func RequireGuardian(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Role(r.Context()) != jwttoken.RoleGuardian {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"guardian token required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Invalid or expired token"}`))
}
