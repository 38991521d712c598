// Package auth verifies bearer tokens, either against a Keycloak realm's JWKS or
// against locally issued HS256 tokens.
package auth

import (
	"context"

	"genesis-api/pkg/apierror"
	"genesis-api/pkg/identity"
)

// Verifier turns a raw bearer token into verified claims.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*identity.TokenClaims, error)
	// Ping reports whether the verifier can currently validate tokens.
	Ping(ctx context.Context) error
}

var (
	ErrInvalidToken = apierror.New(apierror.CodeUnauthorized, "Invalid or expired token", nil)
	ErrJWKSFetch    = apierror.New(apierror.CodeUnavailable, "Could not fetch JWKS keys", nil)
)
