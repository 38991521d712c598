package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"genesis-api/internal/auth"
	"genesis-api/internal/metrics"
	"genesis-api/pkg/apierror"
	"genesis-api/pkg/identity"
)

type AuthMiddleware struct {
	verifier auth.Verifier
	metrics  *metrics.Registry
}

func NewAuthMiddleware(verifier auth.Verifier, reg *metrics.Registry) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, metrics: reg}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
			m.reject(w, r, http.StatusUnauthorized, apierror.CodeUnauthorized, "Missing or invalid authorization header")
			return
		}

		token := strings.TrimSpace(header[7:])
		claims, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			var apiErr *apierror.APIError
			if errors.As(err, &apiErr) && apiErr.HTTPStatus == http.StatusServiceUnavailable {
				m.reject(w, r, apiErr.HTTPStatus, apiErr.Code, apiErr.Message)
				return
			}
			m.reject(w, r, http.StatusUnauthorized, apierror.CodeUnauthorized, "Invalid or expired token")
			return
		}

		if identity.IsTokenExpired(*claims) {
			m.reject(w, r, http.StatusUnauthorized, apierror.CodeUnauthorized, "Token expired")
			return
		}

		user := identity.UserFromTokenClaims(*claims, token)
		ctx := context.WithValue(r.Context(), authUserContextKey, &user)
		ctx = context.WithValue(ctx, claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles admits users holding at least one of allowedRoles. It must run after RequireAuth.
func (m *AuthMiddleware) RequireRoles(allowedRoles ...string) func(http.Handler) http.Handler {
	guard := identity.NewPermissionGuard(allowedRoles...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := UserFromContext(r.Context())

			check := guard(user)
			if !check.Allowed {
				if user == nil {
					m.reject(w, r, http.StatusUnauthorized, apierror.CodeUnauthorized, check.Reason)
					return
				}
				m.reject(w, r, http.StatusForbidden, apierror.CodeForbidden, check.Reason)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func UserFromContext(ctx context.Context) (*identity.AuthUser, bool) {
	user, ok := ctx.Value(authUserContextKey).(*identity.AuthUser)
	return user, ok && user != nil
}

func ClaimsFromContext(ctx context.Context) (*identity.TokenClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*identity.TokenClaims)
	return claims, ok && claims != nil
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	if m.metrics != nil {
		m.metrics.AuthFailuresTotal.WithLabelValues(code).Inc()
	}
	writeFailure(w, r, status, code, message)
}
