package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"genesis-api/pkg/apierror"
)

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}

			requestID := w.Header().Get(requestIDHeader)
			slog.Error("panic recovered",
				"request_id", requestID,
				"error", fmt.Sprintf("%v", recovered),
				"stack", string(debug.Stack()),
			)

			ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
			writeFailure(w, r.WithContext(ctx), http.StatusInternalServerError, apierror.CodeInternal, "Unexpected server error")
		}()

		next.ServeHTTP(w, r)
	})
}
