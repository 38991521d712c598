package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"genesis-api/pkg/envelope"
)

type contextKey string

const (
	requestIDContextKey contextKey = "request_id"
	versionContextKey   contextKey = "api_version"
	authUserContextKey  contextKey = "auth_user"
	claimsContextKey    contextKey = "auth_claims"
)

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

func VersionFromContext(ctx context.Context) string {
	v, _ := ctx.Value(versionContextKey).(string)
	return v
}

// RequestMeta is the envelope meta every response built for r carries.
func RequestMeta(r *http.Request) *envelope.Meta {
	return &envelope.Meta{
		RequestID: RequestIDFromContext(r.Context()),
		Version:   VersionFromContext(r.Context()),
	}
}

func writeFailure(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	resp := envelope.Failure(code, message, nil)
	merged := envelope.MergeMeta(*resp.Meta, RequestMeta(r))
	resp.Meta = &merged

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
