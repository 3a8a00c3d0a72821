package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	"github.com/tomassolanoprieto/subprice/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	Subject string
	Role    string
}

// RequireAuth validates the Bearer token and loads the principal into the
// request context. The subject claim is parsed into a provider or customer
// ID according to the role; admins carry no subject ID.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			role := requestcontext.Role(claims.Role)
			switch role {
			case requestcontext.RoleProvider:
				providerID, err := id.ParseProviderID(claims.Subject)
				if err != nil {
					writeUnauthorized(w, "Invalid token subject")
					return
				}
				ctx = requestcontext.WithProviderID(ctx, providerID)
			case requestcontext.RoleCustomer:
				customerID, err := id.ParseCustomerID(claims.Subject)
				if err != nil {
					writeUnauthorized(w, "Invalid token subject")
					return
				}
				ctx = requestcontext.WithCustomerID(ctx, customerID)
			case requestcontext.RoleAdmin:
				// No subject ID to bind.
			default:
				writeUnauthorized(w, "Unknown role")
				return
			}
			ctx = requestcontext.WithRole(ctx, role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route to the listed roles. Must sit behind
// RequireAuth.
func RequireRole(roles ...requestcontext.Role) func(http.Handler) http.Handler {
	allowed := make(map[requestcontext.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed[requestcontext.RoleOf(r.Context())] {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"Insufficient role"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
