package middleware

import (
	"context"
	"net/http"
	"strings"

	"dues-backend/internal/auth"
	"dues-backend/internal/repositories"
)

type contextKey string

const CustomerIDKey contextKey = "customer_id"
const UsernameKey contextKey = "username"
const RoleKey contextKey = "role"

type AuthMiddleware struct {
	jwtManager   *auth.JWTManager
	customerRepo *repositories.CustomerRepository
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, customerRepo *repositories.CustomerRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:   jwtManager,
		customerRepo: customerRepo,
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// RequireAdmin ensures the caller holds a valid admin session token.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		if claims.Role != auth.RoleAdmin {
			http.Error(w, "Forbidden: admin access required", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), UsernameKey, claims.Username)
		ctx = context.WithValue(ctx, RoleKey, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireCustomer validates a customer session token and re-checks the
// account against the database, so a deleted customer's token dies with
// the account rather than at token expiry.
func (m *AuthMiddleware) RequireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		if claims.Role != auth.RoleCustomer {
			http.Error(w, "Forbidden: customer access required", http.StatusForbidden)
			return
		}

		customer, err := m.customerRepo.GetActive(r.Context(), claims.CustomerID)
		if err != nil {
			http.Error(w, "Account not found", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), CustomerIDKey, customer.ID)
		ctx = context.WithValue(ctx, UsernameKey, customer.Username)
		ctx = context.WithValue(ctx, RoleKey, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCustomerIDFromContext extracts the authenticated customer id
func GetCustomerIDFromContext(ctx context.Context) (int, bool) {
	customerID, ok := ctx.Value(CustomerIDKey).(int)
	return customerID, ok
}

// GetUsernameFromContext extracts the authenticated username
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}
