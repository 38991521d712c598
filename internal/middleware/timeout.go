package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"genesis-api/pkg/apierror"
	"genesis-api/pkg/envelope"
)

func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// handlers overwrite this; it only survives on the timeout body
			w.Header().Set("Content-Type", "application/json")
			http.TimeoutHandler(next, timeout, timeoutBody(r)).ServeHTTP(w, r)
		})
	}
}

func timeoutBody(r *http.Request) string {
	resp := envelope.Failure(apierror.CodeUnavailable, "Request timed out", nil)
	merged := envelope.MergeMeta(*resp.Meta, RequestMeta(r))
	resp.Meta = &merged

	raw, err := json.Marshal(resp)
	if err != nil {
		return `{"success":false,"error":{"code":"SERVICE_UNAVAILABLE","message":"Request timed out"}}`
	}
	return string(raw)
}
