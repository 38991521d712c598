package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"genesis-api/internal/model"
	"genesis-api/pkg/identity"
)

// LocalIssuer signs and verifies HS256 access tokens for embedded auth mode. The
// tokens carry the same claim shape Keycloak issues so the rest of the service
// does not care which mode is active.
type LocalIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewLocalIssuer(secret string, issuer string, ttl time.Duration) *LocalIssuer {
	return &LocalIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (i *LocalIssuer) TTL() time.Duration {
	return i.ttl
}

func (i *LocalIssuer) Issue(user model.User) (string, time.Time, error) {
	now := i.now().UTC()
	expiresAt := now.Add(i.ttl)

	claims := identity.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:             user.Email,
		Name:              user.Name,
		PreferredUsername: user.Email,
		RealmAccess:       &identity.RoleSet{Roles: append([]string{}, user.Roles...)},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

func (i *LocalIssuer) Verify(_ context.Context, raw string) (*identity.TokenClaims, error) {
	claims := &identity.TokenClaims{}

	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return claims, nil
}

func (i *LocalIssuer) Ping(context.Context) error {
	return nil
}
