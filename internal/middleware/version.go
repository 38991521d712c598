package middleware

import (
	"context"
	"net/http"
)

// Version stamps X-API-Version and makes the version available to envelope meta.
func Version(version string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-API-Version", version)
			w.Header().Set("X-Content-Type-Options", "nosniff")
			ctx := context.WithValue(r.Context(), versionContextKey, version)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
