package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"genesis-api/internal/model"
	"genesis-api/pkg/apierror"
	"genesis-api/pkg/identity"
)

func TestLocalIssuerRoundTrip(t *testing.T) {
	t.Parallel()

	issuer := NewLocalIssuer("s3cret", "genesis-api", 15*time.Minute)
	user := model.User{ID: "u1", Email: "jane@example.com", Name: "Jane", Roles: []string{"user", "admin"}}

	raw, expiresAt, err := issuer.Issue(user)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := issuer.Verify(context.Background(), raw)
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)

	authUser := identity.UserFromTokenClaims(*claims, raw)
	require.Equal(t, "u1", authUser.ID)
	require.Equal(t, "Jane", authUser.Name)
	require.True(t, identity.IsAdmin(&authUser))
	require.False(t, identity.IsTokenExpired(*claims))
}

func TestLocalIssuerRejects(t *testing.T) {
	t.Parallel()

	issuer := NewLocalIssuer("s3cret", "genesis-api", time.Minute)
	user := model.User{ID: "u1"}

	t.Run("other secret", func(t *testing.T) {
		raw, _, err := NewLocalIssuer("other", "genesis-api", time.Minute).Issue(user)
		require.NoError(t, err)
		_, err = issuer.Verify(context.Background(), raw)
		requireCode(t, err, apierror.CodeUnauthorized)
	})

	t.Run("other issuer", func(t *testing.T) {
		raw, _, err := NewLocalIssuer("s3cret", "someone-else", time.Minute).Issue(user)
		require.NoError(t, err)
		_, err = issuer.Verify(context.Background(), raw)
		requireCode(t, err, apierror.CodeUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewLocalIssuer("s3cret", "genesis-api", time.Minute)
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		raw, _, err := old.Issue(user)
		require.NoError(t, err)
		_, err = issuer.Verify(context.Background(), raw)
		requireCode(t, err, apierror.CodeUnauthorized)
	})
}
