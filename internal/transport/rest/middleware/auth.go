package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/eduwang/tmssr-250809/internal/model"
	"github.com/eduwang/tmssr-250809/internal/service"
)

type contextKey string

const (
	ClaimsKey contextKey = "claims"
	AdminKey  contextKey = "admin"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireUser validates the session JWT from the Authorization header
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.authenticate(w, r)
		if !ok {
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		ctx = context.WithValue(ctx, AdminKey, m.authSvc.IsAdmin(claims.UID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin validates the session JWT and checks the admin allow-list
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		if !m.authSvc.IsAdmin(claims.UID) {
			http.Error(w, `{"error":"admin access required"}`, http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		ctx = context.WithValue(ctx, AdminKey, true)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request) (*model.UserClaims, bool) {
	token := extractBearerToken(r)
	if token == "" {
		http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
		return nil, false
	}

	claims, err := m.authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}

// GetClaims extracts the session claims from context
func GetClaims(ctx context.Context) *model.UserClaims {
	if v := ctx.Value(ClaimsKey); v != nil {
		return v.(*model.UserClaims)
	}
	return nil
}

// IsAdmin reports whether the session belongs to an allow-listed admin
func IsAdmin(ctx context.Context) bool {
	if v := ctx.Value(AdminKey); v != nil {
		return v.(bool)
	}
	return false
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
