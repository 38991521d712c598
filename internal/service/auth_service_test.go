package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"genesis-api/internal/auth"
	"genesis-api/internal/model"
	"genesis-api/internal/repository"
	"genesis-api/pkg/apierror"
)

func newTestAuthService() (*AuthService, *repository.MemoryUserRepository) {
	users := repository.NewMemoryUserRepository()
	svc := NewAuthService(users, auth.NewLocalIssuer("s3cret", "genesis-api", 15*time.Minute))
	svc.cost = bcrypt.MinCost
	return svc, users
}

func TestAuthServiceSignupSignin(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService()
	ctx := context.Background()

	resp, err := svc.Signup(ctx, model.SignupRequest{Email: "Jane@Example.com", Password: "correct-horse", Name: "Jane"})
	require.NoError(t, err)
	require.Equal(t, "Bearer", resp.TokenType)
	require.Equal(t, "jane@example.com", resp.User.Email)
	require.Equal(t, []string{"user"}, resp.User.Roles)
	require.InDelta(t, 900, resp.ExpiresIn, 2)
	require.NotEmpty(t, resp.AccessToken)

	_, err = svc.Signup(ctx, model.SignupRequest{Email: "jane@example.com", Password: "another-one"})
	requireAPIError(t, err, apierror.CodeConflict)

	signed, err := svc.Signin(ctx, model.SigninRequest{Email: "JANE@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, signed.User.ID)

	_, err = svc.Signin(ctx, model.SigninRequest{Email: "jane@example.com", Password: "wrong-password"})
	requireAPIError(t, err, apierror.CodeUnauthorized)

	_, err = svc.Signin(ctx, model.SigninRequest{Email: "ghost@example.com", Password: "whatever1"})
	requireAPIError(t, err, apierror.CodeUnauthorized)
}

func TestAuthServiceSignupValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService()
	ctx := context.Background()

	tests := []struct {
		name   string
		req    model.SignupRequest
		field  string
		reason string
	}{
		{"missing email", model.SignupRequest{Password: "long-enough"}, "email", "required"},
		{"bad email", model.SignupRequest{Email: "not-an-email", Password: "long-enough"}, "email", "invalid"},
		{"short password", model.SignupRequest{Email: "a@b.io", Password: "short"}, "password", "too_short"},
		{"multibyte password over 72 bytes", model.SignupRequest{Email: "a@b.io", Password: strings.Repeat("€", 40)}, "password", "too_long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.req)
			apiErr := requireAPIError(t, err, apierror.CodeValidation)
			require.Equal(t, tt.field, apiErr.Details["field"])
			require.Equal(t, tt.reason, apiErr.Details["reason"])
		})
	}
}

func TestAuthServiceEnsureAdmin(t *testing.T) {
	t.Parallel()

	svc, users := newTestAuthService()
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "", ""))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "admin-password"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "admin-password"))

	count, err := users.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	admin, err := users.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.Contains(t, admin.Roles, "admin")

	err = svc.EnsureAdmin(ctx, "root@example.com", strings.Repeat("€", 40))
	apiErr := requireAPIError(t, err, apierror.CodeValidation)
	require.Equal(t, "password", apiErr.Details["field"])
}
