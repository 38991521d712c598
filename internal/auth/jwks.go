package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"genesis-api/pkg/identity"
)

const (
	jwksCacheKey = "jwks"
	fetchTimeout = 10 * time.Second
)

type jsonWebKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jsonWebKeySet struct {
	Keys []jsonWebKey `json:"keys"`
}

type keySet map[string]*rsa.PublicKey

// JWKSVerifier validates RS256 tokens against the signing keys a realm publishes.
// Keys are cached for the configured TTL. A token signed with an unknown kid causes
// one refetch before it is rejected, which covers key rotation.
type JWKSVerifier struct {
	url    string
	issuer string
	client *http.Client
	keys   *cache.Cache
	group  singleflight.Group
}

func NewJWKSVerifier(url string, issuer string, ttl time.Duration, client *http.Client) *JWKSVerifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &JWKSVerifier{
		url:    url,
		issuer: issuer,
		client: client,
		keys:   cache.New(ttl, 2*ttl),
	}
}

func (v *JWKSVerifier) Verify(ctx context.Context, raw string) (*identity.TokenClaims, error) {
	claims := &identity.TokenClaims{}

	_, err := jwt.ParseWithClaims(raw, claims, v.keyfunc(ctx),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if errors.Is(err, ErrJWKSFetch) {
		return nil, ErrJWKSFetch
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return claims, nil
}

func (v *JWKSVerifier) Ping(ctx context.Context) error {
	_, err := v.signingKeys(ctx, false)
	return err
}

// Invalidate drops the cached key set.
func (v *JWKSVerifier) Invalidate() {
	v.keys.Delete(jwksCacheKey)
}

func (v *JWKSVerifier) keyfunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token header has no kid")
		}

		keys, err := v.signingKeys(ctx, false)
		if err != nil {
			return nil, err
		}
		if key, ok := keys[kid]; ok {
			return key, nil
		}

		keys, err = v.signingKeys(ctx, true)
		if err != nil {
			return nil, err
		}
		if key, ok := keys[kid]; ok {
			return key, nil
		}

		return nil, fmt.Errorf("no signing key for kid %q", kid)
	}
}

func (v *JWKSVerifier) signingKeys(ctx context.Context, refresh bool) (keySet, error) {
	if !refresh {
		if cached, ok := v.keys.Get(jwksCacheKey); ok {
			return cached.(keySet), nil
		}
	} else {
		v.Invalidate()
	}

	result, err, _ := v.group.Do(jwksCacheKey, func() (any, error) {
		// shared by every waiter; not tied to the caller that started it
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		keys, err := v.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		v.keys.SetDefault(jwksCacheKey, keys)
		return keys, nil
	})
	if err != nil {
		slog.Warn("jwks fetch failed", "url", v.url, "error", err)
		return nil, ErrJWKSFetch
	}

	return result.(keySet), nil
}

func (v *JWKSVerifier) fetch(ctx context.Context) (keySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build jwks request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jwks endpoint returned %d", resp.StatusCode)
	}

	var set jsonWebKeySet
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&set); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(keySet, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := k.rsaPublicKey()
		if err != nil {
			slog.Warn("skipping malformed jwk", "kid", k.Kid, "error", err)
			continue
		}
		keys[k.Kid] = pub
	}

	slog.Debug("jwks fetched", "url", v.url, "keys", len(keys))
	return keys, nil
}

func (k jsonWebKey) rsaPublicKey() (*rsa.PublicKey, error) {
	n, err := decodeSegment(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	e, err := decodeSegment(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	if len(n) == 0 || len(e) == 0 || len(e) > 4 {
		return nil, errors.New("invalid rsa key parameters")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}

func decodeSegment(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
